// Package cart keeps a per-session view of the shopping cart consistent with
// the backend's authoritative cart. Mutations are confirm-then-apply: the
// backend call goes first and local state changes only on success. A
// per-product sequence number discards confirmations that arrive after a
// newer request for the same product was issued.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Op names a reconciler operation.
type Op string

const (
	OpLoad        Op = "load"
	OpSetQuantity Op = "set_quantity"
	OpRemove      Op = "remove"
)

// Remote is the backend cart bound to one session.
type Remote interface {
	FetchCart(ctx context.Context) ([]domain.LineItem, error)
	UpdateCartItem(ctx context.Context, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, productID string) error
}

// ErrorObserver receives every failed operation. productID is empty for
// OpLoad.
type ErrorObserver func(ctx context.Context, op Op, productID string, err error)

// Reconciler owns one session's cart list. It is safe for concurrent use;
// remote calls run without holding the lock.
type Reconciler struct {
	remote  Remote
	observe ErrorObserver

	mu      sync.Mutex
	cart    domain.Cart
	loaded  bool
	issued  map[string]uint64
	applied map[string]uint64
	loadSeq uint64
	loadApp uint64

	// epoch counts confirmed mutations. While a load is in flight each
	// confirmed mutation is kept in changes so the snapshot, fetched before
	// it, can be brought up to date.
	epoch   uint64
	loading int
	changes map[string]change
}

// change is the last confirmed mutation of one product.
type change struct {
	epoch    uint64
	quantity int
	removed  bool
}

// NewReconciler creates an empty, not yet loaded reconciler. A nil observer
// discards failures.
func NewReconciler(remote Remote, observe ErrorObserver) *Reconciler {
	if observe == nil {
		observe = func(context.Context, Op, string, error) {}
	}
	return &Reconciler{
		remote:  remote,
		observe: observe,
		issued:  make(map[string]uint64),
		applied: make(map[string]uint64),
		changes: make(map[string]change),
	}
}

// LogObserver logs failures at warn level; validation rejections at debug.
func LogObserver(logger *slog.Logger) ErrorObserver {
	return func(ctx context.Context, op Op, productID string, err error) {
		level := slog.LevelWarn
		if apperrors.IsValidation(err) {
			level = slog.LevelDebug
		}
		logger.Log(ctx, level, "cart operation failed",
			slog.String("op", string(op)),
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

// Load replaces local state with the backend snapshot. Duplicate product IDs
// in the snapshot are merged. A snapshot older than one already applied is
// dropped. Mutations confirmed while the fetch was in flight are applied on
// top of the snapshot.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	r.loadSeq++
	seq := r.loadSeq
	since := r.epoch
	r.loading++
	r.mu.Unlock()

	items, err := r.remote.FetchCart(ctx)
	if err != nil {
		r.mu.Lock()
		r.endLoad()
		r.mu.Unlock()
		return r.fail(ctx, OpLoad, "", fmt.Errorf("load cart: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.endLoad()
	if seq < r.loadApp {
		mutationsTotal.WithLabelValues(string(OpLoad), resultStale).Inc()
		return nil
	}
	cart := domain.NewCart(items)
	r.replay(&cart, since)
	r.loadApp = seq
	r.cart = cart
	r.loaded = true
	mutationsTotal.WithLabelValues(string(OpLoad), resultOK).Inc()
	return nil
}

// replay applies mutations confirmed after epoch since to cart. Callers hold
// r.mu.
func (r *Reconciler) replay(cart *domain.Cart, since uint64) {
	for productID, c := range r.changes {
		if c.epoch <= since {
			continue
		}
		i := cart.Find(productID)
		if i < 0 {
			continue
		}
		if c.removed {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		} else {
			cart.Items[i].Quantity = c.quantity
		}
	}
}

// endLoad forgets recorded changes once no load is in flight. Callers hold
// r.mu.
func (r *Reconciler) endLoad() {
	r.loading--
	if r.loading == 0 {
		clear(r.changes)
	}
}

// record bumps the epoch for a confirmed mutation of productID. Callers hold
// r.mu.
func (r *Reconciler) record(productID string, quantity int, removed bool) {
	r.epoch++
	if r.loading > 0 {
		r.changes[productID] = change{epoch: r.epoch, quantity: quantity, removed: removed}
	}
}

// SetQuantity sets productID to quantity once the backend confirms.
// quantity below 1 is rejected without a remote call; use Remove instead.
// If a later-issued SetQuantity or Remove for the same product was confirmed
// first, this confirmation is discarded and nil is returned.
func (r *Reconciler) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		mutationsTotal.WithLabelValues(string(OpSetQuantity), resultRejected).Inc()
		return r.fail(ctx, OpSetQuantity, productID,
			apperrors.InvalidInput("quantity must be at least 1, remove the item instead"))
	}

	seq, err := r.issue(productID)
	if err != nil {
		mutationsTotal.WithLabelValues(string(OpSetQuantity), resultRejected).Inc()
		return r.fail(ctx, OpSetQuantity, productID, err)
	}

	if err := r.remote.UpdateCartItem(ctx, productID, quantity); err != nil {
		mutationsTotal.WithLabelValues(string(OpSetQuantity), resultFailed).Inc()
		return r.fail(ctx, OpSetQuantity, productID, fmt.Errorf("update cart item: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.confirm(productID, seq) {
		mutationsTotal.WithLabelValues(string(OpSetQuantity), resultStale).Inc()
		return nil
	}
	if i := r.cart.Find(productID); i >= 0 {
		r.cart.Items[i].Quantity = quantity
	}
	r.record(productID, quantity, false)
	mutationsTotal.WithLabelValues(string(OpSetQuantity), resultOK).Inc()
	return nil
}

// Remove deletes productID once the backend confirms.
func (r *Reconciler) Remove(ctx context.Context, productID string) error {
	seq, err := r.issue(productID)
	if err != nil {
		mutationsTotal.WithLabelValues(string(OpRemove), resultRejected).Inc()
		return r.fail(ctx, OpRemove, productID, err)
	}

	if err := r.remote.RemoveCartItem(ctx, productID); err != nil {
		mutationsTotal.WithLabelValues(string(OpRemove), resultFailed).Inc()
		return r.fail(ctx, OpRemove, productID, fmt.Errorf("remove cart item: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.confirm(productID, seq) {
		mutationsTotal.WithLabelValues(string(OpRemove), resultStale).Inc()
		return nil
	}
	if i := r.cart.Find(productID); i >= 0 {
		r.cart.Items = append(r.cart.Items[:i], r.cart.Items[i+1:]...)
	}
	r.record(productID, 0, true)
	mutationsTotal.WithLabelValues(string(OpRemove), resultOK).Inc()
	return nil
}

// issue checks that productID is in the cart and returns its next sequence
// number.
func (r *Reconciler) issue(productID string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cart.Find(productID) < 0 {
		return 0, apperrors.NotFound("cart item", productID)
	}
	r.issued[productID]++
	return r.issued[productID], nil
}

// confirm records seq as applied unless a later-issued request for
// productID was already applied. Callers hold r.mu.
func (r *Reconciler) confirm(productID string, seq uint64) bool {
	if seq <= r.applied[productID] {
		staleConfirmations.Inc()
		return false
	}
	r.applied[productID] = seq
	return true
}

func (r *Reconciler) fail(ctx context.Context, op Op, productID string, err error) error {
	r.observe(ctx, op, productID, err)
	return err
}

// Snapshot returns a copy of the current cart.
func (r *Reconciler) Snapshot() domain.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cart.Clone()
}

// Loaded reports whether a snapshot was ever applied.
func (r *Reconciler) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}
