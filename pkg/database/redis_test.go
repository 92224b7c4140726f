package database

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		tp.Shutdown(context.Background()) //nolint:errcheck
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func newTestClient(t *testing.T, slow time.Duration, logger *slog.Logger) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	cfg.SlowThreshold = slow

	client, err := NewRedisClient(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := DefaultRedisConfig()
	cfg.Addr = addr
	_, err := NewRedisClient(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestCommandHook_SpansAndMetrics(t *testing.T) {
	exporter := setupTestTracer(t)
	client, _ := newTestClient(t, 0, nil)
	ctx := context.Background()
	exporter.Reset()

	okBefore := testutil.ToFloat64(redisCommandsTotal.WithLabelValues("set", "ok"))
	missBefore := testutil.ToFloat64(redisCommandsTotal.WithLabelValues("get", "miss"))

	require.NoError(t, client.Set(ctx, "product:p-1", "lamp", time.Minute).Err())
	_, err := client.Get(ctx, "product:missing").Result()
	require.ErrorIs(t, err, redis.Nil)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(redisCommandsTotal.WithLabelValues("set", "ok")))
	assert.Equal(t, missBefore+1, testutil.ToFloat64(redisCommandsTotal.WithLabelValues("get", "miss")))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "redis.set", spans[0].Name)
	assert.Equal(t, "redis.get", spans[1].Name)
	assert.Equal(t, codes.Unset, spans[1].Status.Code, "a miss is not an error")
}

func TestCommandHook_ErrorStatus(t *testing.T) {
	exporter := setupTestTracer(t)
	client, mr := newTestClient(t, 0, nil)
	exporter.Reset()

	mr.SetError("ERR backend fault")
	err := client.Get(context.Background(), "k").Err()
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, codes.Error, spans[len(spans)-1].Status.Code)
}

func TestCommandHook_SlowCommandLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	client, _ := newTestClient(t, time.Nanosecond, logger)

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.Contains(t, buf.String(), "slow redis command")
	assert.Contains(t, buf.String(), `"command":"set"`)
}

func TestCommandHook_Pipeline(t *testing.T) {
	exporter := setupTestTracer(t)
	client, _ := newTestClient(t, 0, nil)
	exporter.Reset()

	_, err := client.Pipelined(context.Background(), func(p redis.Pipeliner) error {
		p.Set(context.Background(), "a", 1, 0)
		p.Set(context.Background(), "b", 2, 0)
		return nil
	})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "redis.pipeline", spans[0].Name)
}

func TestPing(t *testing.T) {
	client, mr := newTestClient(t, 0, nil)
	check := Ping(client)
	require.NoError(t, check(context.Background()))

	mr.Close()
	assert.Error(t, check(context.Background()))
}
