package backend

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// FetchProducts returns every active catalog product.
func (c *Client) FetchProducts(ctx context.Context, token string) ([]domain.Product, error) {
	var res []domain.Product
	if err := c.call(ctx, token, fnFetchAllProducts, nil, &res, asRead()); err != nil {
		return nil, err
	}
	return res, nil
}

// FetchProduct returns a single product.
func (c *Client) FetchProduct(ctx context.Context, token, productID string) (*domain.Product, error) {
	params := struct {
		ProductID string `json:"productId"`
	}{productID}

	var res domain.Product
	if err := c.call(ctx, token, fnGetSingleProduct, params, &res, asRead()); err != nil {
		return nil, err
	}
	return &res, nil
}

// ImageFile is an uploaded product image as a data URL.
type ImageFile struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// ProductInput carries the seller-editable product fields.
type ProductInput struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category,omitempty"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantityAvailable"`
	IsActive          bool            `json:"isActive"`
	ImageFiles        []ImageFile     `json:"imageFiles,omitempty"`
}

// CreateProduct lists a new product for the session's seller and returns its ID.
func (c *Client) CreateProduct(ctx context.Context, token string, in ProductInput) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, token, fnAddProduct, in, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

// UpdateProduct replaces the editable fields of productID.
func (c *Client) UpdateProduct(ctx context.Context, token, productID string, in ProductInput) error {
	params := struct {
		ProductID string `json:"productId"`
		ProductInput
	}{productID, in}
	return c.call(ctx, token, fnUpdateProduct, params, nil)
}

// DeleteProduct removes productID from the catalog.
func (c *Client) DeleteProduct(ctx context.Context, token, productID string) error {
	params := struct {
		ProductID string `json:"productId"`
	}{productID}
	return c.call(ctx, token, fnDeleteProduct, params, nil)
}
