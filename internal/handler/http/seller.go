package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/seller"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/httputil"
)

// SellerService is the seller surface: registration, dashboard, product
// management and order fulfilment.
type SellerService interface {
	Register(ctx context.Context, sess *session.Session, profile domain.SellerProfile) (*backend.Registration, error)
	Dashboard(ctx context.Context, token string) (*seller.Dashboard, error)
	ListProducts(ctx context.Context, token, query string) ([]seller.ProductView, error)
	GetProduct(ctx context.Context, token, productID string) (seller.ProductView, error)
	CreateProduct(ctx context.Context, token string, form seller.ProductForm) (string, error)
	UpdateProduct(ctx context.Context, token, productID string, form seller.ProductForm) error
	DeleteProduct(ctx context.Context, token, productID string) error
	ListOrders(ctx context.Context, token, query, status string) ([]seller.OrderView, error)
	CompleteOrder(ctx context.Context, token, orderID string) error
}

// SessionIssuer signs session tokens.
type SessionIssuer interface {
	Issue(s session.Session, ttl time.Duration) (string, error)
}

// SellerHandler handles HTTP requests for seller endpoints.
type SellerHandler struct {
	service SellerService
	issuer  SessionIssuer
	cookie  CookieConfig
	logger  *slog.Logger
}

// NewSellerHandler creates a new seller HTTP handler.
func NewSellerHandler(svc SellerService, issuer SessionIssuer, cookie CookieConfig, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{service: svc, issuer: issuer, cookie: cookie, logger: logger}
}

// --- Request DTOs ---

// RegisterSellerRequest is the JSON request body for seller registration.
// Both agreements must be accepted.
type RegisterSellerRequest struct {
	StoreName          string `json:"store_name" validate:"required,min=2,max=100"`
	Bio                string `json:"bio" validate:"max=1000"`
	PhoneNumber        string `json:"phone_number" validate:"omitempty,e164"`
	AcceptTerms        bool   `json:"accept_terms" validate:"required"`
	AcceptSellerPolicy bool   `json:"accept_seller_policy" validate:"required"`
}

// ImageRequest is an uploaded image encoded as a data URL.
type ImageRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Data string `json:"data" validate:"required"`
}

// ProductRequest is the JSON request body for creating or updating a product.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Category    string          `json:"category" validate:"max=100"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Status      string          `json:"status" validate:"omitempty,oneof=active draft out_of_stock"`
	Images      []ImageRequest  `json:"images" validate:"max=3,dive"`
}

func (req ProductRequest) form() seller.ProductForm {
	images := make([]backend.ImageFile, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, backend.ImageFile{Name: img.Name, Data: img.Data})
	}
	return seller.ProductForm{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Status:      domain.ProductStatus(req.Status),
		Images:      images,
	}
}

// --- Response types ---

// RegistrationResponse reports the caller's role after registration. Token
// is set when the session was promoted and re-issued.
type RegistrationResponse struct {
	Role     string `json:"role"`
	Promoted bool   `json:"promoted"`
	Token    string `json:"token,omitempty"`
}

// --- Handlers ---

// Register handles POST /api/v1/seller/register
func (h *SellerHandler) Register(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	var req RegisterSellerRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	reg, err := h.service.Register(r.Context(), sess, domain.SellerProfile{
		StoreName:   strings.TrimSpace(req.StoreName),
		Bio:         strings.TrimSpace(req.Bio),
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := RegistrationResponse{Role: reg.Role, Promoted: reg.Promoted}
	if reg.Promoted {
		promoted := *sess
		promoted.Role = domain.RoleSeller
		token, err := h.issuer.Issue(promoted, h.cookie.TTL)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		setSessionCookie(w, token, h.cookie)
		resp.Token = token
	}

	httputil.WriteData(w, http.StatusOK, resp)
}

// Dashboard handles GET /api/v1/seller/dashboard
func (h *SellerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	dash, err := h.service.Dashboard(r.Context(), sess.Token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, dash)
}

// ListProducts handles GET /api/v1/seller/products
func (h *SellerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.service.ListProducts(r.Context(), sess.Token, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, products)
}

// GetProduct handles GET /api/v1/seller/products/{id}
func (h *SellerHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.PathParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), sess.Token, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/seller/products
func (h *SellerHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	id, err := h.service.CreateProduct(r.Context(), sess.Token, req.form())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateProduct handles PUT /api/v1/seller/products/{id}
func (h *SellerHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.PathParam(w, r, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if err := h.service.UpdateProduct(r.Context(), sess.Token, id, req.form()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id})
}

// DeleteProduct handles DELETE /api/v1/seller/products/{id}
func (h *SellerHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.PathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), sess.Token, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListOrders handles GET /api/v1/seller/orders
func (h *SellerHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	orders, err := h.service.ListOrders(r.Context(), sess.Token, q.Get("q"), q.Get("status"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, orders)
}

// CompleteOrder handles POST /api/v1/seller/orders/{id}/complete
func (h *SellerHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.PathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.CompleteOrder(r.Context(), sess.Token, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": string(domain.OrderCompleted)})
}
