package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const maxErrorBody = 1 << 20

// ErrorEnvelope is the failure body returned by the remote backend.
type ErrorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ServerError is a 5xx response captured by CircuitBreakerClient.
type ServerError struct {
	StatusCode int
	Body       []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, string(e.Body))
}

// ParseResponseError reads a non-2xx response and translates it into an
// AppError named after the remote function. The body is consumed and closed.
func ParseResponseError(resp *http.Response, function string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.Remote(function, fmt.Errorf("status %d, read body: %w", resp.StatusCode, err))
	}
	return ParseErrorBody(resp.StatusCode, body, function)
}

// ParseErrorBody maps a status code and raw failure body to an AppError.
func ParseErrorBody(status int, body []byte, function string) error {
	var env ErrorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		return mapRemoteError(status, env.Error.Code, env.Error.Message, function)
	}
	return apperrors.Remote(function, fmt.Errorf("status %d: %s", status, truncate(body, 256)))
}

// mapRemoteError keeps the backend's message and picks the local error kind
// from the HTTP status.
func mapRemoteError(status int, code, message, function string) error {
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{Code: "NOT_FOUND", Message: message, Status: status, Err: apperrors.ErrNotFound}
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(message)
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusGone:
		return apperrors.Gone(message)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(message)
	case status >= 500:
		return apperrors.Remote(function, fmt.Errorf("status %d (%s): %s", status, code, message))
	default:
		if code == "" {
			code = "REMOTE_ERROR"
		}
		return &apperrors.AppError{Code: code, Message: message, Status: status, Err: apperrors.ErrRemote}
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
