package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/pkg/logger"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// Topics published by the storefront.
var (
	TopicOrderPlaced = pkgkafka.Topic("order", "placed")
	TopicCartChanged = pkgkafka.Topic("cart", "changed")
)

// Aggregate type constants.
const (
	AggregateTypeOrder = "order"
	AggregateTypeCart  = "cart"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// Cart change actions.
const (
	CartActionAdded   = "added"
	CartActionUpdated = "updated"
	CartActionRemoved = "removed"
)

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Status    string          `json:"status"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

// CartChangedData is the payload for a cart.changed event.
type CartChangedData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
	Quantity  int    `json:"quantity,omitempty"`
}

// Producer publishes storefront domain events. A Producer built without a
// Kafka client drops events, which is how the service runs with Kafka
// disabled.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer. kafka may be nil.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, data OrderPlacedData) error {
	if err := p.publish(ctx, TopicOrderPlaced, data.OrderID, AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("order_id", data.OrderID),
		slog.String("user_id", data.UserID),
	)
	return nil
}

// PublishCartChanged publishes a cart.changed event keyed by user.
func (p *Producer) PublishCartChanged(ctx context.Context, data CartChangedData) error {
	if err := p.publish(ctx, TopicCartChanged, data.UserID, AggregateTypeCart, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.changed event",
		slog.String("user_id", data.UserID),
		slog.String("product_id", data.ProductID),
		slog.String("action", data.Action),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
