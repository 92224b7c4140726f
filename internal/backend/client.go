// Package backend calls the remote storefront backend. Every operation is a
// named function invoked as POST {baseURL}/functions/{name} with a JSON
// parameter object; results arrive as {"data": ...} and failures as a
// non-2xx status with {"error": {"code", "message"}}.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

const tracerName = "github.com/utafrali/storefront/internal/backend"

// Header names understood by the backend.
const (
	HeaderAppID          = "X-App-Id"
	HeaderSessionToken   = "X-Session-Token"
	HeaderIdempotencyKey = "Idempotency-Key"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_calls_total",
			Help: "Total number of backend function calls by function and outcome",
		},
		[]string{"function", "outcome"},
	)

	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_backend_call_duration_seconds",
			Help:    "Backend function call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"function"},
	)
)

// HTTPDoer executes HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback replaces the raw breaker error with a retry hint.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("storefront backend is temporarily unavailable, please retry shortly")
}

// Client invokes backend functions.
type Client struct {
	baseURL string
	appID   string
	doer    HTTPDoer
	logger  *slog.Logger
}

// NewClient creates a backend client. baseURL must not include /functions.
func NewClient(baseURL, appID string, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		doer:    doer,
		logger:  logger,
	}
}

type callOptions struct {
	read           bool
	idempotencyKey string
}

type callOption func(*callOptions)

// asRead marks a call free of side effects so the transport may retry it.
func asRead() callOption {
	return func(o *callOptions) { o.read = true }
}

func withIdempotencyKey(key string) callOption {
	return func(o *callOptions) { o.idempotencyKey = key }
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// call invokes function with params and decodes the result into out (which
// may be nil). Mutations are sent exactly once.
func (c *Client) call(ctx context.Context, token, function string, params, out any, opts ...callOption) (err error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := tracing.Tracer(tracerName).Start(ctx, "backend."+function,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "storefront-functions"),
			attribute.String("rpc.method", function),
			attribute.Bool("backend.read", o.read),
		),
	)
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		callsTotal.WithLabelValues(function, outcome).Inc()
		callDuration.WithLabelValues(function).Observe(time.Since(start).Seconds())
		span.End()
	}()

	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", function, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/"+function, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", function, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAppID, c.appID)
	if token != "" {
		req.Header.Set(HeaderSessionToken, token)
	}
	if o.idempotencyKey != "" {
		req.Header.Set(HeaderIdempotencyKey, o.idempotencyKey)
	}

	if o.read {
		ctx = httpclient.Idempotent(ctx)
	}
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return c.transportError(ctx, function, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, function)
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&env); err != nil {
		return apperrors.Remote(function, fmt.Errorf("decode response: %w", err))
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.Remote(function, fmt.Errorf("decode %s result: %w", function, err))
	}
	return nil
}

// maxResponseBody bounds decoded responses; product lists embed image URLs
// only, never image data.
const maxResponseBody = 16 << 20

func (c *Client) transportError(ctx context.Context, function string, err error) error {
	var se *httpclient.ServerError
	if errors.As(err, &se) {
		return httpclient.ParseErrorBody(se.StatusCode, se.Body, function)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, httpclient.ErrCircuitOpen) || errors.Is(err, httpclient.ErrTooManyRequests) {
		return apperrors.ServiceUnavailable("storefront backend is temporarily unavailable, please retry shortly")
	}

	c.logger.WarnContext(ctx, "backend call failed",
		slog.String("function", function),
		slog.String("error", err.Error()),
	)
	return apperrors.Remote(function, err)
}
