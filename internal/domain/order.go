package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus values reported by the backend.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderCompleted  OrderStatus = "Completed"
	OrderFailed     OrderStatus = "Failed"
	OrderCancelled  OrderStatus = "Cancelled"
)

// Settled reports whether the backend finished the order's side effects
// (inventory and cart clearing). Pending is the only unsettled state.
func (s OrderStatus) Settled() bool {
	return s != "" && !strings.EqualFold(string(s), string(OrderPending))
}

// Succeeded reports whether the order was accepted.
func (s OrderStatus) Succeeded() bool {
	for _, ok := range []OrderStatus{OrderProcessing, OrderShipped, OrderCompleted} {
		if strings.EqualFold(string(s), string(ok)) {
			return true
		}
	}
	return false
}

// Order is a placed order.
type Order struct {
	ID        string          `json:"id"`
	Status    OrderStatus     `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Buyer     string          `json:"buyer,omitempty"`
	Items     []LineItem      `json:"items,omitempty"`
	CreatedAt time.Time       `json:"date"`
}
