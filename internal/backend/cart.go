package backend

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

type wireCartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

type wireCart struct {
	Items []wireCartItem `json:"items"`
}

// FetchCart returns the session's cart as an ordered snapshot.
func (c *Client) FetchCart(ctx context.Context, token string) ([]domain.LineItem, error) {
	var res wireCart
	if err := c.call(ctx, token, fnGetCart, nil, &res, asRead()); err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, domain.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			ImageRef:  it.Image,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
		})
	}
	return items, nil
}

// UpdateCartItem sets the quantity of productID. quantity must be >= 1.
func (c *Client) UpdateCartItem(ctx context.Context, token, productID string, quantity int) error {
	params := struct {
		ProductID   string `json:"productId"`
		NewQuantity int    `json:"newQuantity"`
	}{productID, quantity}
	return c.call(ctx, token, fnUpdateCart, params, nil)
}

// RemoveCartItem deletes productID from the cart.
func (c *Client) RemoveCartItem(ctx context.Context, token, productID string) error {
	params := struct {
		ProductID string `json:"productId"`
	}{productID}
	return c.call(ctx, token, fnRemoveFromCart, params, nil)
}

// AddToCart adds quantity units of productID, merging with an existing line.
func (c *Client) AddToCart(ctx context.Context, token, productID string, quantity int) error {
	params := struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}{productID, quantity}
	return c.call(ctx, token, fnAddToCart, params, nil)
}
