package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

func stubValidator(token string) (*Claims, error) {
	switch token {
	case "buyer-token":
		return &Claims{UserID: "u-1", Email: "b@example.com", Role: "buyer", BackendToken: "r:abc"}, nil
	case "seller-token":
		return &Claims{UserID: "u-2", Email: "s@example.com", Role: "seller", BackendToken: "r:def"}, nil
	default:
		return nil, fmt.Errorf("token is malformed")
	}
}

func authChain(h http.Handler, extra ...func(http.Handler) http.Handler) http.Handler {
	for i := len(extra) - 1; i >= 0; i-- {
		h = extra[i](h)
	}
	return Authenticate(stubValidator, logger.NewWithWriter("test", "error", &bytes.Buffer{}))(h)
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	var claims *Claims
	h := authChain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = ClaimsFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, claims)
}

func TestAuthenticate_BearerToken(t *testing.T) {
	var claims *Claims
	var logUser string
	h := authChain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = ClaimsFromContext(r.Context())
		logUser = logger.UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer buyer-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, claims)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "r:abc", claims.BackendToken)
	assert.Equal(t, "u-1", logUser)
}

func TestAuthenticate_SessionCookie(t *testing.T) {
	var role string
	h := authChain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/seller/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "seller-token"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "seller", role)
}

func TestAuthenticate_InvalidTokenRejected(t *testing.T) {
	called := false
	h := authChain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestRequireAuth(t *testing.T) {
	h := authChain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), RequireAuth)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer buyer-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := authChain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), RequireRole("seller"))

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"buyer", "buyer-token", http.StatusForbidden},
		{"seller", "seller-token", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/seller/products", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestWithClaims(t *testing.T) {
	ctx := WithClaims(httptest.NewRequest(http.MethodGet, "/", nil).Context(), &Claims{UserID: "u-9", Role: "buyer"})
	assert.Equal(t, "u-9", UserIDFromContext(ctx))
	assert.Equal(t, "buyer", logger.RoleFromContext(ctx))
}
