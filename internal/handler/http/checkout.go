package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/httputil"
)

// CheckoutService places orders.
type CheckoutService interface {
	Submit(ctx context.Context, sess *session.Session) (*checkout.Result, error)
}

// CheckoutHandler handles HTTP requests for checkout.
type CheckoutHandler struct {
	service CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// Checkout handles POST /api/v1/checkout. The response carries the order
// and the reloaded cart once the order settled.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Submit(r.Context(), sess)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, result)
}
