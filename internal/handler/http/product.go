package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/catalog"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// ProductService is the catalog surface used by the product and add-to-cart
// endpoints.
type ProductService interface {
	List(ctx context.Context, token string, f catalog.Filter, page pagination.Params) (pagination.Result[catalog.ProductView], error)
	Get(ctx context.Context, token, productID string) (catalog.ProductView, error)
	AddToCart(ctx context.Context, userID, token, productID string, quantity int) error
}

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// AddToCartRequest is the JSON request body for adding a product to the cart.
// A missing quantity adds one unit.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,gte=1,lte=100"`
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.List(r.Context(), sessionToken(r), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.service.Get(r.Context(), sessionToken(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// AddToCart handles POST /api/v1/cart/items
func (h *ProductHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	quantity := catalog.MinAddQuantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if err := h.service.AddToCart(r.Context(), sess.UserID, sess.Token, req.ProductID, quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, map[string]any{
		"product_id": req.ProductID,
		"quantity":   quantity,
	})
}

// filterFromQuery reads q, category, min_price, max_price and sort.
func filterFromQuery(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	f := catalog.Filter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Sort:     catalog.Sort(q.Get("sort")),
	}

	var err error
	if f.MinPrice, err = priceParam(q.Get("min_price"), "min_price"); err != nil {
		return catalog.Filter{}, err
	}
	if f.MaxPrice, err = priceParam(q.Get("max_price"), "max_price"); err != nil {
		return catalog.Filter{}, err
	}
	return f, nil
}

func priceParam(raw, name string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(name + " must be a number")
	}
	return &d, nil
}
