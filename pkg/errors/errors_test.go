package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrForbidden,
		ErrInternal, ErrConflict, ErrGone, ErrServiceUnavail, ErrRemote,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "product not found"}
	assert.Equal(t, "NOT_FOUND: product not found", appErr.Error())

	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: fmt.Errorf("socket closed")}
	assert.Contains(t, wrapped.Error(), "socket closed")
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "nope", Err: ErrNotFound}
	assert.True(t, errors.Is(appErr, ErrNotFound))
	assert.Nil(t, (&AppError{Code: "X"}).Unwrap())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "p-1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"invalid input", InvalidInput("quantity must be at least 1"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("login required"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("seller role required"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"conflict", Conflict("checkout already in progress"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"gone", Gone("cart view expired"), "GONE", http.StatusGone, ErrGone},
		{"unavailable", ServiceUnavailable("backend down"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
		{"remote", Remote("getCart", fmt.Errorf("dial tcp: refused")), "REMOTE_FAILURE", http.StatusBadGateway, ErrRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestRemote_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Remote("updateCart", cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Message, "updateCart")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", Forbidden("x"), http.StatusForbidden},
		{"wrapped app error", fmt.Errorf("outer: %w", NotFound("cart", "u")), http.StatusNotFound},
		{"bare sentinel", ErrConflict, http.StatusConflict},
		{"wrapped sentinel", fmt.Errorf("ctx: %w", ErrInvalidInput), http.StatusBadRequest},
		{"gone", ErrGone, http.StatusGone},
		{"remote", ErrRemote, http.StatusBadGateway},
		{"unknown", fmt.Errorf("kaboom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "load product")
	assert.Equal(t, "load product: resource not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(InvalidInput("bad")))
	assert.False(t, IsValidation(Remote("getCart", fmt.Errorf("x"))))
	assert.False(t, IsValidation(nil))
}
