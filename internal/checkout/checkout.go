// Package checkout turns a buyer's cart into an order and waits until the
// backend has settled it before the cart view is reloaded.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/pricing"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Backend is the subset of the backend client checkout uses.
type Backend interface {
	PlaceOrder(ctx context.Context, token, idempotencyKey string) (*backend.PlacedOrder, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
}

// Carts is the cart view registry.
type Carts interface {
	Snapshot(ctx context.Context, userID, token string) (domain.Cart, error)
	Enter(ctx context.Context, userID, token string) (cart.View, error)
	Policy() domain.PricingPolicy
}

// EventPublisher publishes order events.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, data event.OrderPlacedData) error
}

// Config controls how long Submit waits for settlement.
type Config struct {
	// PollInterval between getOrder calls; zero disables polling.
	PollInterval time.Duration
	// SettleTimeout bounds the wait for a push or poll confirmation.
	SettleTimeout time.Duration
	// SettleDelay is waited instead when no confirmation arrived in time.
	SettleDelay time.Duration
}

// Result is the outcome of a checkout.
type Result struct {
	OrderID   string             `json:"order_id"`
	Status    domain.OrderStatus `json:"status"`
	Confirmed bool               `json:"confirmed"`
	Cart      *cart.View         `json:"cart,omitempty"`
}

// Service implements checkout submission.
type Service struct {
	backend  Backend
	carts    Carts
	notifier *Notifier
	events   EventPublisher
	cfg      Config
	logger   *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a checkout service. notifier may be nil when no push
// confirmations are consumed.
func NewService(b Backend, carts Carts, notifier *Notifier, events EventPublisher, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		backend:  b,
		carts:    carts,
		notifier: notifier,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// Submit places an order for the session's cart. A second Submit for the
// same user while one is running is rejected with a conflict. After the
// order is placed Submit waits for a push confirmation or a settled
// getOrder status, falling back to the configured settle delay, and then
// reloads the cart view.
func (s *Service) Submit(ctx context.Context, sess *session.Session) (*Result, error) {
	if sess == nil || sess.UserID == "" {
		submissionsTotal.WithLabelValues("rejected").Inc()
		return nil, apperrors.Unauthorized("login required to check out")
	}

	if !s.acquire(sess.UserID) {
		submissionsTotal.WithLabelValues("conflict").Inc()
		return nil, apperrors.Conflict("checkout already in progress")
	}
	defer s.release(sess.UserID)

	snapshot, err := s.carts.Snapshot(ctx, sess.UserID, sess.Token)
	if err != nil {
		submissionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if snapshot.IsEmpty() {
		submissionsTotal.WithLabelValues("rejected").Inc()
		return nil, apperrors.InvalidInput("cart is empty")
	}

	placed, err := s.backend.PlaceOrder(ctx, sess.Token, uuid.NewString())
	if err != nil {
		submissionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", placed.OrderID),
		slog.String("status", string(placed.Status)),
	)

	totals := pricing.Calculate(snapshot.Items, s.carts.Policy())
	if err := s.events.PublishOrderPlaced(ctx, event.OrderPlacedData{
		OrderID:   placed.OrderID,
		UserID:    sess.UserID,
		Status:    string(placed.Status),
		ItemCount: snapshot.ItemCount(),
		Subtotal:  totals.Subtotal,
		Total:     totals.Total,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", placed.OrderID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	status, confirmed := s.awaitSettled(ctx, sess.Token, placed)
	res := &Result{OrderID: placed.OrderID, Status: status, Confirmed: confirmed}
	if confirmed {
		submissionsTotal.WithLabelValues("confirmed").Inc()
	} else {
		submissionsTotal.WithLabelValues("unconfirmed").Inc()
	}

	if ctx.Err() != nil {
		return res, nil
	}
	view, err := s.carts.Enter(ctx, sess.UserID, sess.Token)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to reload cart after checkout",
			slog.String("order_id", placed.OrderID),
			slog.String("error", err.Error()),
		)
		return res, nil
	}
	res.Cart = &view
	return res, nil
}

func (s *Service) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *Service) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}

// awaitSettled blocks until the order is observed settled or the wait is
// exhausted, and reports the last known status.
func (s *Service) awaitSettled(ctx context.Context, token string, placed *backend.PlacedOrder) (domain.OrderStatus, bool) {
	start := time.Now()
	status := placed.Status
	if status.Settled() {
		settleDuration.WithLabelValues(confirmedImmediate).Observe(0)
		return status, true
	}

	var pushed <-chan domain.OrderStatus
	if s.notifier != nil {
		ch, cancel := s.notifier.Subscribe(placed.OrderID)
		defer cancel()
		pushed = ch
	}

	var poll <-chan time.Time
	if s.cfg.PollInterval > 0 {
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	if pushed != nil || poll != nil {
		timeout := time.NewTimer(s.cfg.SettleTimeout)
		defer timeout.Stop()

	wait:
		for {
			select {
			case <-ctx.Done():
				return status, false
			case st := <-pushed:
				if st.Settled() {
					settleDuration.WithLabelValues(confirmedPush).Observe(time.Since(start).Seconds())
					return st, true
				}
				status = st
			case <-poll:
				order, err := s.backend.GetOrder(ctx, token, placed.OrderID)
				if err != nil {
					s.logger.WarnContext(ctx, "order status poll failed",
						slog.String("order_id", placed.OrderID),
						slog.String("error", err.Error()),
					)
					continue
				}
				status = order.Status
				if status.Settled() {
					settleDuration.WithLabelValues(confirmedPoll).Observe(time.Since(start).Seconds())
					return status, true
				}
			case <-timeout.C:
				break wait
			}
		}
	}

	s.logger.WarnContext(ctx, "order not confirmed in time, waiting settle delay",
		slog.String("order_id", placed.OrderID),
		slog.Duration("delay", s.cfg.SettleDelay),
	)
	delay := time.NewTimer(s.cfg.SettleDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
	case <-delay.C:
		settleDuration.WithLabelValues(confirmedDelay).Observe(time.Since(start).Seconds())
	}
	return status, false
}
