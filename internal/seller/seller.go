// Package seller serves the seller dashboard, product management and
// seller registration.
package seller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/pricing"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// recentCount is the number of orders and products on the overview.
const recentCount = 3

// Backend is the subset of the backend client the seller screens use.
type Backend interface {
	FetchSellerProducts(ctx context.Context, token string) ([]domain.Product, error)
	FetchSellerOrders(ctx context.Context, token string) ([]domain.Order, error)
	CreateProduct(ctx context.Context, token string, in backend.ProductInput) (string, error)
	UpdateProduct(ctx context.Context, token, productID string, in backend.ProductInput) error
	DeleteProduct(ctx context.Context, token, productID string) error
	CompleteOrder(ctx context.Context, token, orderID string) error
	RegisterSeller(ctx context.Context, token string, profile domain.SellerProfile) (*backend.Registration, error)
}

// CacheInvalidator drops cached catalog entries after a product changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

// ProductView is a product row on the seller screens.
type ProductView struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Category          string   `json:"category,omitempty"`
	Price             string   `json:"price"`
	QuantityAvailable int      `json:"quantity_available"`
	Status            string   `json:"status"`
	Images            []string `json:"images"`
}

func newProductView(p *domain.Product) ProductView {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductView{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		Price:             pricing.Display(p.Price),
		QuantityAvailable: p.QuantityAvailable,
		Status:            string(p.Status()),
		Images:            images,
	}
}

// OrderView is an order row on the seller screens.
type OrderView struct {
	ID     string    `json:"id"`
	Buyer  string    `json:"buyer,omitempty"`
	Status string    `json:"status"`
	Total  string    `json:"total"`
	Date   time.Time `json:"date"`
}

func newOrderView(o *domain.Order) OrderView {
	return OrderView{
		ID:     o.ID,
		Buyer:  o.Buyer,
		Status: string(o.Status),
		Total:  pricing.Display(o.Total),
		Date:   o.CreatedAt,
	}
}

// Dashboard is the seller overview.
type Dashboard struct {
	Revenue        string        `json:"revenue"`
	OrderCount     int           `json:"order_count"`
	ProductCount   int           `json:"product_count"`
	ActiveProducts int           `json:"active_products"`
	RecentOrders   []OrderView   `json:"recent_orders"`
	RecentProducts []ProductView `json:"recent_products"`
}

// ProductForm is a seller's product submission.
type ProductForm struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Status      domain.ProductStatus
	Images      []backend.ImageFile
}

// input validates f and converts it to the backend shape. Only active
// listings are visible to shoppers; out_of_stock keeps the listing active
// with no stock.
func (f ProductForm) input() (backend.ProductInput, error) {
	if strings.TrimSpace(f.Name) == "" {
		return backend.ProductInput{}, apperrors.InvalidInput("product name is required")
	}
	if f.Price.IsNegative() {
		return backend.ProductInput{}, apperrors.InvalidInput("price must not be negative")
	}
	if f.Stock < 0 {
		return backend.ProductInput{}, apperrors.InvalidInput("stock must not be negative")
	}
	if err := validateImages(f.Images); err != nil {
		return backend.ProductInput{}, err
	}

	in := backend.ProductInput{
		Name:              strings.TrimSpace(f.Name),
		Description:       f.Description,
		Category:          f.Category,
		Price:             f.Price,
		QuantityAvailable: f.Stock,
		ImageFiles:        f.Images,
	}
	switch f.Status {
	case domain.ProductActive, "":
		in.IsActive = true
	case domain.ProductDraft:
		in.IsActive = false
	case domain.ProductOutOfStock:
		in.IsActive = true
		in.QuantityAvailable = 0
	default:
		return backend.ProductInput{}, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", f.Status))
	}
	return in, nil
}

// Service implements the seller operations. Authorization is enforced by
// the backend; callers also gate routes on the seller role.
type Service struct {
	backend Backend
	catalog CacheInvalidator
	logger  *slog.Logger
}

// NewService creates a new seller service.
func NewService(b Backend, catalog CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{
		backend: b,
		catalog: catalog,
		logger:  logger,
	}
}

// Dashboard fetches the seller's products and orders concurrently and
// derives the overview figures.
func (s *Service) Dashboard(ctx context.Context, token string) (*Dashboard, error) {
	var (
		wg                     sync.WaitGroup
		products               []domain.Product
		orders                 []domain.Order
		productsErr, ordersErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		products, productsErr = s.backend.FetchSellerProducts(ctx, token)
	}()
	go func() {
		defer wg.Done()
		orders, ordersErr = s.backend.FetchSellerOrders(ctx, token)
	}()
	wg.Wait()

	if productsErr != nil {
		return nil, fmt.Errorf("fetch seller products: %w", productsErr)
	}
	if ordersErr != nil {
		return nil, fmt.Errorf("fetch seller orders: %w", ordersErr)
	}

	revenue := decimal.Zero
	for _, o := range orders {
		revenue = revenue.Add(o.Total)
	}

	d := &Dashboard{
		Revenue:        pricing.Display(revenue),
		OrderCount:     len(orders),
		ProductCount:   len(products),
		RecentOrders:   make([]OrderView, 0, recentCount),
		RecentProducts: make([]ProductView, 0, recentCount),
	}
	for i := range products {
		if products[i].Status() == domain.ProductActive {
			d.ActiveProducts++
		}
	}
	for i := range orders[:min(recentCount, len(orders))] {
		d.RecentOrders = append(d.RecentOrders, newOrderView(&orders[i]))
	}
	for i := range products[:min(recentCount, len(products))] {
		d.RecentProducts = append(d.RecentProducts, newProductView(&products[i]))
	}
	return d, nil
}

// ListProducts returns the seller's products whose name contains query.
func (s *Service) ListProducts(ctx context.Context, token, query string) ([]ProductView, error) {
	products, err := s.backend.FetchSellerProducts(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch seller products: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]ProductView, 0, len(products))
	for i := range products {
		if q != "" && !strings.Contains(strings.ToLower(products[i].Name), q) {
			continue
		}
		out = append(out, newProductView(&products[i]))
	}
	return out, nil
}

// GetProduct returns one of the seller's products, drafts included.
func (s *Service) GetProduct(ctx context.Context, token, productID string) (ProductView, error) {
	products, err := s.backend.FetchSellerProducts(ctx, token)
	if err != nil {
		return ProductView{}, fmt.Errorf("fetch seller products: %w", err)
	}
	for i := range products {
		if products[i].ID == productID {
			return newProductView(&products[i]), nil
		}
	}
	return ProductView{}, apperrors.NotFound("product", productID)
}

// ListOrders returns the seller's orders. query matches the order ID or
// buyer; status "" or "all" matches every status.
func (s *Service) ListOrders(ctx context.Context, token, query, status string) ([]OrderView, error) {
	orders, err := s.backend.FetchSellerOrders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch seller orders: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]OrderView, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		if status != "" && status != "all" && !strings.EqualFold(string(o.Status), status) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(o.ID), q) && !strings.Contains(strings.ToLower(o.Buyer), q) {
			continue
		}
		out = append(out, newOrderView(o))
	}
	return out, nil
}

// CreateProduct lists a new product and returns its ID.
func (s *Service) CreateProduct(ctx context.Context, token string, form ProductForm) (string, error) {
	in, err := form.input()
	if err != nil {
		return "", err
	}

	id, err := s.backend.CreateProduct(ctx, token, in)
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", id),
		slog.Int("images", len(in.ImageFiles)),
	)
	return id, nil
}

// UpdateProduct replaces the product's editable fields.
func (s *Service) UpdateProduct(ctx context.Context, token, productID string, form ProductForm) error {
	in, err := form.input()
	if err != nil {
		return err
	}

	if err := s.backend.UpdateProduct(ctx, token, productID, in); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, productID)

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", productID))
	return nil
}

// DeleteProduct removes the product.
func (s *Service) DeleteProduct(ctx context.Context, token, productID string) error {
	if err := s.backend.DeleteProduct(ctx, token, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, productID)

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", productID))
	return nil
}

// CompleteOrder marks an order completed.
func (s *Service) CompleteOrder(ctx context.Context, token, orderID string) error {
	if err := s.backend.CompleteOrder(ctx, token, orderID); err != nil {
		return fmt.Errorf("complete order: %w", err)
	}
	s.logger.InfoContext(ctx, "order completed", slog.String("order_id", orderID))
	return nil
}

// Register creates the seller profile and promotes the buyer. Promotion
// happens at most once: a seller session registering again gets its
// current role back without a remote call.
func (s *Service) Register(ctx context.Context, sess *session.Session, profile domain.SellerProfile) (*backend.Registration, error) {
	if sess == nil {
		return nil, apperrors.Unauthorized("login required to register as seller")
	}
	if strings.TrimSpace(profile.StoreName) == "" {
		return nil, apperrors.InvalidInput("store name is required")
	}
	if sess.IsSeller() {
		s.logger.DebugContext(ctx, "seller registration skipped, session is already a seller")
		return &backend.Registration{Role: domain.RoleSeller, Promoted: false}, nil
	}

	reg, err := s.backend.RegisterSeller(ctx, sess.Token, profile)
	if err != nil {
		return nil, fmt.Errorf("register seller: %w", err)
	}

	s.logger.InfoContext(ctx, "seller registered",
		slog.String("store_name", profile.StoreName),
		slog.Bool("promoted", reg.Promoted),
	)
	return reg, nil
}

func (s *Service) invalidate(ctx context.Context, productID string) {
	if err := s.catalog.Invalidate(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate catalog cache",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
