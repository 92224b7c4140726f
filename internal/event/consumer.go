package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// Topics the storefront consumes. The backend publishes them.
var (
	TopicOrderConfirmed = pkgkafka.Topic("order", "confirmed")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
)

// idempotencyTTL bounds how long consumed event IDs are remembered.
const idempotencyTTL = 24 * time.Hour

// OrderConfirmedData is the payload of an order.confirmed event.
type OrderConfirmedData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Status  string `json:"status"`
}

// ProductUpdatedData is the payload of a product.updated event.
type ProductUpdatedData struct {
	ProductID string `json:"product_id"`
	Action    string `json:"action,omitempty"`
}

// OrderNotifier is told when the backend confirms an order.
type OrderNotifier interface {
	Notify(orderID, status string)
}

// CacheInvalidator drops cached catalog entries.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

// ErrMissingID is returned for payloads without the identifier they are keyed on.
var ErrMissingID = errors.New("event payload has no id")

// OrderConfirmedHandler forwards order confirmations to notifier.
func OrderConfirmedHandler(notifier OrderNotifier, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, event *pkgkafka.Event) error {
		var data OrderConfirmedData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal order.confirmed data: %w", err)
		}
		if data.OrderID == "" {
			return fmt.Errorf("order.confirmed %s: %w", event.EventID, ErrMissingID)
		}

		notifier.Notify(data.OrderID, data.Status)

		logger.InfoContext(ctx, "order confirmation received",
			slog.String("order_id", data.OrderID),
			slog.String("status", data.Status),
		)
		return nil
	}
}

// ProductUpdatedHandler invalidates the cached product and the catalog list.
func ProductUpdatedHandler(cache CacheInvalidator, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, event *pkgkafka.Event) error {
		var data ProductUpdatedData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal product.updated data: %w", err)
		}
		if data.ProductID == "" {
			return fmt.Errorf("product.updated %s: %w", event.EventID, ErrMissingID)
		}

		if err := cache.Invalidate(ctx, data.ProductID); err != nil {
			return fmt.Errorf("invalidate product %s: %w", data.ProductID, err)
		}

		logger.DebugContext(ctx, "catalog cache invalidated",
			slog.String("product_id", data.ProductID),
		)
		return nil
	}
}

// ConsumersConfig configures the storefront's consumers.
type ConsumersConfig struct {
	Brokers []string
	GroupID string
	// Redis, when set, backs the idempotency store so duplicates are
	// detected across restarts.
	Redis *redis.Client
}

// Consumers runs one Kafka consumer per inbound topic.
type Consumers struct {
	consumers []*pkgkafka.Consumer
	dlq       *pkgkafka.DLQProducer
	logger    *slog.Logger
}

// NewConsumers wires the order.confirmed and product.updated consumers with
// deduplication and a dead letter queue.
func NewConsumers(cfg ConsumersConfig, notifier OrderNotifier, cache CacheInvalidator, logger *slog.Logger) *Consumers {
	var store pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	if cfg.Redis != nil {
		store = pkgkafka.NewRedisIdempotencyStore(cfg.Redis, "storefront:events:", idempotencyTTL)
	}
	dlq := pkgkafka.NewDLQProducer(cfg.Brokers, logger)

	handlers := map[string]pkgkafka.Handler{
		TopicOrderConfirmed: OrderConfirmedHandler(notifier, logger),
		TopicProductUpdated: ProductUpdatedHandler(cache, logger),
	}

	c := &Consumers{dlq: dlq, logger: logger}
	for _, topic := range []string{TopicOrderConfirmed, TopicProductUpdated} {
		consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, pkgkafka.IdempotentHandler(store, handlers[topic], logger), logger).WithDLQ(dlq)
		c.consumers = append(c.consumers, consumer)
	}
	return c
}

// Start runs every consumer until ctx is cancelled.
func (c *Consumers) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, consumer := range c.consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}
	wg.Wait()
}

// Close closes the consumers and the DLQ writer.
func (c *Consumers) Close() error {
	var errs []error
	for _, consumer := range c.consumers {
		errs = append(errs, consumer.Close())
	}
	errs = append(errs, c.dlq.Close())
	return errors.Join(errs...)
}
