package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// LineItem is one product entry in a cart with its quantity. Name and
// ImageRef are display-only.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageRef  string          `json:"image_ref,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns UnitPrice × Quantity at full precision.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is an ordered list of line items with unique product IDs. Totals are
// derived on every read and never stored.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Subtotal returns Σ(unitPrice × quantity).
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns the index of the item with productID, or -1.
func (c *Cart) Find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers cannot alias reconciler state.
func (c *Cart) Clone() Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// NewCart builds a cart from a backend snapshot. Items with the same product
// ID are merged into the first occurrence with their quantities summed;
// items with quantity below 1 are dropped.
func NewCart(items []LineItem) Cart {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return Cart{Items: out}
}

var (
	ErrNegativeShipping = errors.New("shipping must not be negative")
	ErrTaxRateRange     = errors.New("tax rate must be in [0, 1)")
)

// PricingPolicy is the flat shipping fee and tax rate applied to an order.
// Tax applies to the subtotal only.
type PricingPolicy struct {
	ShippingFlat decimal.Decimal
	TaxRate      decimal.Decimal
}

// Validate checks ShippingFlat >= 0 and 0 <= TaxRate < 1.
func (p PricingPolicy) Validate() error {
	if p.ShippingFlat.IsNegative() {
		return ErrNegativeShipping
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ErrTaxRateRange
	}
	return nil
}
