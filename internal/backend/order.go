package backend

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// PlacedOrder is the immediate result of createOrder. The backend clears the
// cart and decrements inventory asynchronously after returning it.
type PlacedOrder struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

// PlaceOrder turns the session's cart into an order. idempotencyKey lets the
// backend collapse a duplicate submission; the call itself is never retried.
func (c *Client) PlaceOrder(ctx context.Context, token, idempotencyKey string) (*PlacedOrder, error) {
	var res PlacedOrder
	if err := c.call(ctx, token, fnCreateOrder, nil, &res, withIdempotencyKey(idempotencyKey)); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetOrder returns one of the session's orders.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	params := struct {
		OrderID string `json:"orderId"`
	}{orderID}

	var res domain.Order
	if err := c.call(ctx, token, fnGetOrder, params, &res, asRead()); err != nil {
		return nil, err
	}
	return &res, nil
}
