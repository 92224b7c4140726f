package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus is the seller-facing listing state.
type ProductStatus string

const (
	ProductActive     ProductStatus = "active"
	ProductDraft      ProductStatus = "draft"
	ProductOutOfStock ProductStatus = "out_of_stock"
)

// Product is a catalog listing as returned by the backend.
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category,omitempty"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantityAvailable"`
	IsActive          bool            `json:"isActive"`
	Images            []string        `json:"images,omitempty"`
	SellerID          string          `json:"sellerId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// Status derives the listing state from the active flag and stock.
func (p *Product) Status() ProductStatus {
	switch {
	case !p.IsActive:
		return ProductDraft
	case p.QuantityAvailable <= 0:
		return ProductOutOfStock
	default:
		return ProductActive
	}
}

// InStock reports whether the product can be added to a cart.
func (p *Product) InStock() bool {
	return p.IsActive && p.QuantityAvailable > 0
}

// PrimaryImage returns the first image or "".
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
