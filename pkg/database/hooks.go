package database

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/storefront/pkg/database"

var (
	redisCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_commands_total",
			Help: "Total number of Redis commands by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	redisCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Redis command latency in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"command"},
	)
)

// CommandHook is a redis.Hook that wraps each command in a client span,
// records latency and outcome metrics and logs slow commands.
type CommandHook struct {
	slowThreshold time.Duration
	logger        *slog.Logger
}

var _ redis.Hook = (*CommandHook)(nil)

// NewCommandHook creates a hook. A nil logger or zero threshold disables
// slow command logging.
func NewCommandHook(slowThreshold time.Duration, logger *slog.Logger) *CommandHook {
	return &CommandHook{slowThreshold: slowThreshold, logger: logger}
}

func (h *CommandHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *CommandHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, end := h.start(ctx, cmd.Name())
		err := next(ctx, cmd)
		end(err)
		return err
	}
}

func (h *CommandHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, end := h.start(ctx, "pipeline")
		err := next(ctx, cmds)
		end(err)
		return err
	}
}

func (h *CommandHook) start(ctx context.Context, command string) (context.Context, func(error)) {
	begin := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redis."+command,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", command),
		),
	)

	return ctx, func(err error) {
		elapsed := time.Since(begin)
		redisCommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())

		outcome := "ok"
		switch {
		case err == nil:
		case errors.Is(err, redis.Nil):
			// A cache miss is a normal reply, not a failure.
			outcome = "miss"
		default:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		redisCommandsTotal.WithLabelValues(command, outcome).Inc()
		span.End()

		if h.slowThreshold > 0 && h.logger != nil && elapsed >= h.slowThreshold {
			attrs := []any{
				slog.String("command", command),
				slog.Duration("duration", elapsed),
			}
			if outcome == "error" {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			h.logger.WarnContext(ctx, "slow redis command", attrs...)
		}
	}
}
