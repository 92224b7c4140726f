package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/pkg/httputil"
)

// CartService is the cart view registry.
type CartService interface {
	Enter(ctx context.Context, userID, token string) (cart.View, error)
	SetQuantity(ctx context.Context, userID, token, productID string, quantity int) (cart.View, error)
	Remove(ctx context.Context, userID, token, productID string) (cart.View, error)
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	carts  CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(carts CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// --- Request DTOs ---

// UpdateQuantityRequest is the JSON request body for changing a line's
// quantity. Range checks happen in the reconciler so a zero is rejected
// with the same message on every path.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart. Entering the cart screen always reloads
// it from the backend.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.carts.Enter(r.Context(), sess.UserID, sess.Token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := httputil.PathParam(w, r, "productId")
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	view, err := h.carts.SetQuantity(r.Context(), sess.UserID, sess.Token, productID, *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := httputil.PathParam(w, r, "productId")
	if !ok {
		return
	}

	view, err := h.carts.Remove(r.Context(), sess.UserID, sess.Token, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}
