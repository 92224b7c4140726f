package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// LogoutBackend invalidates backend session tokens.
type LogoutBackend interface {
	LogOut(ctx context.Context, token string) error
}

// CartEvicter drops a user's cached cart view.
type CartEvicter interface {
	Evict(userID string)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

// SessionHandler handles HTTP requests for the caller's session.
type SessionHandler struct {
	backend LogoutBackend
	carts   CartEvicter
	cookie  CookieConfig
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(backend LogoutBackend, carts CartEvicter, cookie CookieConfig, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{backend: backend, carts: carts, cookie: cookie, logger: logger}
}

// GetSession handles GET /api/v1/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, sess)
}

// Logout handles POST /api/v1/session/logout. Local state is always
// cleared; a backend failure is only logged.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.backend.LogOut(r.Context(), sess.Token); err != nil {
		h.logger.WarnContext(r.Context(), "backend logout failed",
			slog.String("error", err.Error()),
		)
	}
	h.carts.Evict(sess.UserID)
	clearSessionCookie(w, h.cookie)

	w.WriteHeader(http.StatusNoContent)
}

func setSessionCookie(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
