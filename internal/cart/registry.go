package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// SessionBackend is the backend cart API keyed by session token.
type SessionBackend interface {
	FetchCart(ctx context.Context, token string) ([]domain.LineItem, error)
	UpdateCartItem(ctx context.Context, token, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, token, productID string) error
}

type boundRemote struct {
	backend SessionBackend
	token   string
}

func (b boundRemote) FetchCart(ctx context.Context) ([]domain.LineItem, error) {
	return b.backend.FetchCart(ctx, b.token)
}

func (b boundRemote) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	return b.backend.UpdateCartItem(ctx, b.token, productID, quantity)
}

func (b boundRemote) RemoveCartItem(ctx context.Context, productID string) error {
	return b.backend.RemoveCartItem(ctx, b.token, productID)
}

// BindSession returns a Remote that calls backend with token.
func BindSession(backend SessionBackend, token string) Remote {
	return boundRemote{backend: backend, token: token}
}

type view struct {
	rec      *Reconciler
	token    string
	lastUsed time.Time
}

// Registry holds one Reconciler per user session. Views are never shared
// between sessions and are evicted after idleTTL without use.
type Registry struct {
	backend SessionBackend
	policy  domain.PricingPolicy
	idleTTL time.Duration
	logger  *slog.Logger
	observe ErrorObserver
	nowFunc func() time.Time

	mu    sync.Mutex
	views map[string]*view
}

// NewRegistry creates an empty registry.
func NewRegistry(backend SessionBackend, policy domain.PricingPolicy, idleTTL time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		backend: backend,
		policy:  policy,
		idleTTL: idleTTL,
		logger:  logger,
		observe: LogObserver(logger),
		nowFunc: time.Now,
		views:   make(map[string]*view),
	}
}

// Policy returns the pricing policy views are rendered with.
func (g *Registry) Policy() domain.PricingPolicy {
	return g.policy
}

// reconciler returns the session's reconciler, creating it when absent or
// when the session token changed.
func (g *Registry) reconciler(userID, token string) *Reconciler {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bind(userID, token, true)
}

// bind returns the view's reconciler for token, replacing a view bound to
// another token. With create false a missing view yields nil. Callers hold g.mu.
func (g *Registry) bind(userID, token string, create bool) *Reconciler {
	v, ok := g.views[userID]
	if !ok && !create {
		return nil
	}
	if !ok || v.token != token {
		v = &view{
			rec:   NewReconciler(BindSession(g.backend, token), g.observe),
			token: token,
		}
		if !ok {
			activeViews.Inc()
		}
		g.views[userID] = v
	}
	v.lastUsed = g.nowFunc()
	return v.rec
}

// loaded returns a reconciler that has applied at least one snapshot.
func (g *Registry) loaded(ctx context.Context, userID, token string) (*Reconciler, error) {
	rec := g.reconciler(userID, token)
	if rec.Loaded() {
		return rec, nil
	}
	if err := rec.Load(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// Enter is the cart screen entry: it always performs a full refresh.
func (g *Registry) Enter(ctx context.Context, userID, token string) (View, error) {
	rec := g.reconciler(userID, token)
	if err := rec.Load(ctx); err != nil {
		return View{}, err
	}
	return Render(rec.Snapshot(), g.policy), nil
}

// SetQuantity updates one item and returns the resulting view.
func (g *Registry) SetQuantity(ctx context.Context, userID, token, productID string, quantity int) (View, error) {
	rec, err := g.loaded(ctx, userID, token)
	if err != nil {
		return View{}, err
	}
	if err := rec.SetQuantity(ctx, productID, quantity); err != nil {
		return View{}, err
	}
	return Render(rec.Snapshot(), g.policy), nil
}

// Remove deletes one item and returns the resulting view.
func (g *Registry) Remove(ctx context.Context, userID, token, productID string) (View, error) {
	rec, err := g.loaded(ctx, userID, token)
	if err != nil {
		return View{}, err
	}
	if err := rec.Remove(ctx, productID); err != nil {
		return View{}, err
	}
	return Render(rec.Snapshot(), g.policy), nil
}

// Snapshot returns the session's current cart, loading it if needed.
func (g *Registry) Snapshot(ctx context.Context, userID, token string) (domain.Cart, error) {
	rec, err := g.loaded(ctx, userID, token)
	if err != nil {
		return domain.Cart{}, err
	}
	return rec.Snapshot(), nil
}

// Refresh reloads the session's view if one is open, fetching with token. A
// view bound to an older token is replaced first. It reports whether a view
// existed.
func (g *Registry) Refresh(ctx context.Context, userID, token string) (bool, error) {
	g.mu.Lock()
	rec := g.bind(userID, token, false)
	g.mu.Unlock()
	if rec == nil {
		return false, nil
	}
	return true, rec.Load(ctx)
}

// Evict drops the session's view.
func (g *Registry) Evict(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.views[userID]; ok {
		delete(g.views, userID)
		activeViews.Dec()
	}
}

// Len returns the number of live views.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.views)
}

// Run evicts idle views until ctx is cancelled.
func (g *Registry) Run(ctx context.Context) {
	interval := max(g.idleTTL/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := g.sweep(); n > 0 {
				g.logger.Debug("evicted idle cart views", slog.Int("count", n))
			}
		}
	}
}

func (g *Registry) sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowFunc()
	var n int
	for userID, v := range g.views {
		if now.Sub(v.lastUsed) > g.idleTTL {
			delete(g.views, userID)
			activeViews.Dec()
			n++
		}
	}
	return n
}
