// Package catalog serves the public product listing and product pages, and
// adds products to a buyer's cart.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/pricing"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/slug"
)

// Quantity bounds for a single add-to-cart request.
const (
	MinAddQuantity = 1
	MaxAddQuantity = 100
)

// Backend is the subset of the backend client the catalog uses.
type Backend interface {
	FetchProducts(ctx context.Context, token string) ([]domain.Product, error)
	FetchProduct(ctx context.Context, token, productID string) (*domain.Product, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) error
}

// CartRefresher reloads a session's open cart view.
type CartRefresher interface {
	Refresh(ctx context.Context, userID, token string) (bool, error)
}

// EventPublisher publishes cart change events.
type EventPublisher interface {
	PublishCartChanged(ctx context.Context, data event.CartChangedData) error
}

// Sort orders a product listing.
type Sort string

const (
	SortFeatured  Sort = "featured"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNewest    Sort = "newest"
)

// Filter narrows a product listing. Zero values match everything.
type Filter struct {
	Query    string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     Sort
}

// Validate checks the sort key and price bounds.
func (f Filter) Validate() error {
	switch f.Sort {
	case "", SortFeatured, SortPriceAsc, SortPriceDesc, SortNewest:
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown sort %q", f.Sort))
	}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return apperrors.InvalidInput("min_price must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return apperrors.InvalidInput("min_price must not exceed max_price")
	}
	return nil
}

func (f Filter) match(p *domain.Product) bool {
	if !p.IsActive {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	}
	return true
}

func sortProducts(products []domain.Product, s Sort) {
	switch s {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	case SortNewest:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return b.CreatedAt.Compare(a.CreatedAt) })
	default:
		// Featured keeps the backend's order.
	}
}

// ProductView is a product as rendered to shoppers.
type ProductView struct {
	ID                string   `json:"id"`
	Slug              string   `json:"slug"`
	SKU               string   `json:"sku"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Category          string   `json:"category,omitempty"`
	Price             string   `json:"price"`
	QuantityAvailable int      `json:"quantity_available"`
	Status            string   `json:"status"`
	InStock           bool     `json:"in_stock"`
	Image             string   `json:"image,omitempty"`
	Images            []string `json:"images"`
}

// NewProductView renders p.
func NewProductView(p *domain.Product) ProductView {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductView{
		ID:                p.ID,
		Slug:              slug.Generate(p.Name),
		SKU:               sku(p.ID),
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		Price:             pricing.Display(p.Price),
		QuantityAvailable: p.QuantityAvailable,
		Status:            string(p.Status()),
		InStock:           p.InStock(),
		Image:             p.PrimaryImage(),
		Images:            images,
	}
}

// sku derives the display SKU from the product ID.
func sku(id string) string {
	short := strings.ToUpper(id[:min(len(id), 8)])
	return "SKU-" + cmp.Or(short, "UNKNOWN")
}

// Service implements the catalog operations.
type Service struct {
	backend Backend
	cache   Cache
	carts   CartRefresher
	events  EventPublisher
	logger  *slog.Logger
}

// NewService creates a new catalog service.
func NewService(backend Backend, cache Cache, carts CartRefresher, events EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		cache:   cache,
		carts:   carts,
		events:  events,
		logger:  logger,
	}
}

// List returns one page of active products matching f.
func (s *Service) List(ctx context.Context, token string, f Filter, page pagination.Params) (pagination.Result[ProductView], error) {
	if err := f.Validate(); err != nil {
		return pagination.Result[ProductView]{}, err
	}

	all, err := s.products(ctx, token)
	if err != nil {
		return pagination.Result[ProductView]{}, err
	}

	matched := make([]domain.Product, 0, len(all))
	for i := range all {
		if f.match(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	sortProducts(matched, f.Sort)

	views := make([]ProductView, len(matched))
	for i := range matched {
		views[i] = NewProductView(&matched[i])
	}
	return pagination.Slice(views, page), nil
}

// Get returns an active product. Inactive listings are reported as not found.
func (s *Service) Get(ctx context.Context, token, productID string) (ProductView, error) {
	p, err := s.product(ctx, token, productID)
	if err != nil {
		return ProductView{}, err
	}
	if !p.IsActive {
		return ProductView{}, apperrors.NotFound("product", productID)
	}
	return NewProductView(p), nil
}

// AddToCart adds quantity units of productID to the session's cart. The
// quantity must lie in [MinAddQuantity, MaxAddQuantity] and must not exceed
// the product's stock. An open cart view for the user is refreshed.
func (s *Service) AddToCart(ctx context.Context, userID, token, productID string, quantity int) error {
	if quantity < MinAddQuantity || quantity > MaxAddQuantity {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must be between %d and %d", MinAddQuantity, MaxAddQuantity))
	}

	p, err := s.product(ctx, token, productID)
	if err != nil {
		return err
	}
	if !p.InStock() {
		return apperrors.InvalidInput(fmt.Sprintf("%s is out of stock", p.Name))
	}
	if quantity > p.QuantityAvailable {
		return apperrors.InvalidInput(fmt.Sprintf("only %d of %s available", p.QuantityAvailable, p.Name))
	}

	if err := s.backend.AddToCart(ctx, token, productID, quantity); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}

	if _, err := s.carts.Refresh(ctx, userID, token); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh cart view after add",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishCartChanged(ctx, event.CartChangedData{
		UserID:    userID,
		ProductID: productID,
		Action:    event.CartActionAdded,
		Quantity:  quantity,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.changed event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "product added to cart",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return nil
}

// Invalidate drops cached entries for productID.
func (s *Service) Invalidate(ctx context.Context, productID string) error {
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		return fmt.Errorf("invalidate catalog: %w", err)
	}
	return nil
}

func (s *Service) products(ctx context.Context, token string) ([]domain.Product, error) {
	cached, err := s.cache.GetList(ctx)
	if err == nil {
		cacheLookups.WithLabelValues("list", "hit").Inc()
		return cached, nil
	}
	s.recordMiss(ctx, "list", "", err)

	products, err := s.backend.FetchProducts(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	if err := s.cache.SetList(ctx, products); err != nil {
		s.logger.WarnContext(ctx, "failed to cache product list", slog.String("error", err.Error()))
	}
	return products, nil
}

func (s *Service) product(ctx context.Context, token, productID string) (*domain.Product, error) {
	cached, err := s.cache.GetProduct(ctx, productID)
	if err == nil {
		cacheLookups.WithLabelValues("product", "hit").Inc()
		return cached, nil
	}
	s.recordMiss(ctx, "product", productID, err)

	p, err := s.backend.FetchProduct(ctx, token, productID)
	if err != nil {
		return nil, fmt.Errorf("fetch product: %w", err)
	}
	if err := s.cache.SetProduct(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "failed to cache product",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
	return p, nil
}

// recordMiss counts a cache miss. Cache failures are logged and served from
// the backend.
func (s *Service) recordMiss(ctx context.Context, kind, productID string, err error) {
	if errors.Is(err, ErrCacheMiss) {
		cacheLookups.WithLabelValues(kind, "miss").Inc()
		return
	}
	cacheLookups.WithLabelValues(kind, "error").Inc()
	s.logger.WarnContext(ctx, "catalog cache read failed",
		slog.String("kind", kind),
		slog.String("product_id", productID),
		slog.String("error", err.Error()),
	)
}
