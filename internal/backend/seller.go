package backend

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// FetchSellerProducts returns the session seller's products, drafts included.
func (c *Client) FetchSellerProducts(ctx context.Context, token string) ([]domain.Product, error) {
	var res []domain.Product
	if err := c.call(ctx, token, fnGetSellerProducts, nil, &res, asRead()); err != nil {
		return nil, err
	}
	return res, nil
}

// FetchSellerOrders returns orders containing the session seller's products,
// newest first.
func (c *Client) FetchSellerOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var res []domain.Order
	if err := c.call(ctx, token, fnGetSellerOrders, nil, &res, asRead()); err != nil {
		return nil, err
	}
	return res, nil
}

// CompleteOrder marks orderID as completed.
func (c *Client) CompleteOrder(ctx context.Context, token, orderID string) error {
	params := struct {
		OrderID string `json:"orderId"`
	}{orderID}
	return c.call(ctx, token, fnCompleteOrder, params, nil)
}

// Registration is the result of registerSeller.
type Registration struct {
	Role     string `json:"role"`
	Promoted bool   `json:"promoted"`
}

// RegisterSeller creates the seller profile and promotes the buyer.
func (c *Client) RegisterSeller(ctx context.Context, token string, profile domain.SellerProfile) (*Registration, error) {
	var res Registration
	if err := c.call(ctx, token, fnRegisterSeller, profile, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// LogOut invalidates the backend session token.
func (c *Client) LogOut(ctx context.Context, token string) error {
	return c.call(ctx, token, fnLogOut, nil, nil)
}
