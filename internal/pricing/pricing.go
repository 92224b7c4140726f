// Package pricing derives order totals from line items and a pricing policy.
// Amounts keep full decimal precision; rounding to cents happens only when a
// summary is rendered.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// displayPlaces is the number of fraction digits shown to users.
const displayPlaces = 2

// Totals is the full-precision breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculate returns subtotal = Σ(unitPrice × quantity), tax = subtotal ×
// taxRate and total = subtotal + shipping + tax. Shipping is charged once
// regardless of item count. Inputs are assumed non-negative.
func Calculate(items []domain.LineItem, policy domain.PricingPolicy) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	tax := subtotal.Mul(policy.TaxRate)

	return Totals{
		Subtotal: subtotal,
		Shipping: policy.ShippingFlat,
		Tax:      tax,
		Total:    subtotal.Add(policy.ShippingFlat).Add(tax),
	}
}

// Summary is an order summary rounded for presentation.
type Summary struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// Summarize returns the rendered order summary, or nil for an empty cart:
// no summary is shown and no shipping or tax is computed.
func Summarize(items []domain.LineItem, policy domain.PricingPolicy) *Summary {
	if len(items) == 0 {
		return nil
	}
	t := Calculate(items, policy)
	return &Summary{
		Subtotal: Display(t.Subtotal),
		Shipping: Display(t.Shipping),
		Tax:      Display(t.Tax),
		Total:    Display(t.Total),
	}
}

// Display renders an amount with two fraction digits, rounding half away
// from zero.
func Display(d decimal.Decimal) string {
	return d.StringFixed(displayPlaces)
}
