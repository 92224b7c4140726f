package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"

	"github.com/utafrali/storefront/internal/session"
)

// decodeJSON decodes and validates the request body into dst. On failure it
// writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, l *slog.Logger) bool {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteError(w, r, err, l)
		return false
	}
	httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), l)
	return false
}

// requireSession returns the caller's session, writing 401 when the request
// is anonymous.
func requireSession(w http.ResponseWriter, r *http.Request, l *slog.Logger) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("login required"), l)
		return nil, false
	}
	return sess, true
}

// sessionToken is the backend token of the caller, or "" when anonymous.
func sessionToken(r *http.Request) string {
	if sess, ok := session.FromContext(r.Context()); ok {
		return sess.Token
	}
	return ""
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
