package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/seller"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	consumers      *event.Consumers
	carts          *cart.Registry
	rateLimiter    *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracingCfg := tracing.DefaultConfig("storefront")
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracingCfg.Enabled = cfg.OTELEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client.
	redisCfg := database.DefaultRedisConfig()
	redisCfg.Addr = cfg.RedisAddr
	redisCfg.Password = cfg.RedisPass
	redisCfg.DB = cfg.RedisDB
	rdb, err := database.NewRedisClient(ctx, redisCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer. With Kafka disabled events are dropped.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	eventProducer := event.NewProducer(producer, logger)

	// Backend client: retrying transport behind a circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.BackendTimeout,
		MaxRetries:      cfg.BackendMaxRetries,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 100,
	})
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "storefront-backend",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     cfg.CBInterval,
		Timeout:      cfg.CBTimeout,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(backend.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Duration("timeout", cbCfg.Timeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)
	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendAppID, cbClient, logger)

	// Build the dependency graph.
	policy := domain.PricingPolicy{ShippingFlat: cfg.ShippingFlat, TaxRate: cfg.TaxRate}
	carts := cart.NewRegistry(backendClient, policy, cfg.CartViewIdleTTL, logger)
	catalogService := catalog.NewService(
		backendClient,
		catalog.NewRedisCache(rdb, cfg.CatalogCacheTTL),
		carts,
		eventProducer,
		logger,
	)
	notifier := checkout.NewNotifier()
	checkoutService := checkout.NewService(backendClient, carts, notifier, eventProducer, checkout.Config{
		PollInterval:  cfg.CheckoutPollInterval,
		SettleTimeout: cfg.CheckoutSettleTimeout,
		SettleDelay:   cfg.CheckoutSettleDelay,
	}, logger)
	sellerService := seller.NewService(backendClient, catalogService, logger)
	sessions := session.NewJWTProvider(cfg.JWTSecret)

	// Kafka consumers feed order confirmations and catalog invalidations.
	var consumers *event.Consumers
	if cfg.KafkaEnabled {
		consumers = event.NewConsumers(event.ConsumersConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Redis:   rdb,
		}, notifier, catalogService, logger)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", database.Ping(rdb))
	healthHandler.RegisterNonCritical("backend", func(context.Context) error {
		if cbClient.State() == gobreaker.StateOpen {
			return errors.New("circuit breaker open")
		}
		return nil
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP router.
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	router := handler.NewRouter(handler.Services{
		Products: catalogService,
		Carts:    carts,
		Checkout: checkoutService,
		Seller:   sellerService,
		Sessions: sessions,
		Issuer:   sessions,
		Logout:   backendClient,
	}, healthHandler, handler.RouterConfig{
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			ExposedHeaders:   []string{middleware.CorrelationHeader},
			MaxAge:           3600,
			AllowCredentials: cfg.CORSAllowCredentials,
			Environment:      cfg.Environment,
		},
		RateLimiter: rateLimiter,
		Cookie: handler.CookieConfig{
			TTL:    cfg.SessionTTL,
			Secure: cfg.Environment != "development",
		},
		CatalogTTL:   cfg.CatalogCacheTTL,
		PprofCIDRs:   cfg.PprofAllowedCIDRs,
		MetricsCIDRs: cfg.MetricsAllowedCIDRs,
	}, logger)

	// WriteTimeout covers the longest checkout wait.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		consumers:      consumers,
		carts:          carts,
		rateLimiter:    rateLimiter,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server, the cart view sweeper and the Kafka consumers,
// and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	bgCtx, stopBackground := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.carts.Run(bgCtx)
	}()

	if a.consumers != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.consumers.Start(bgCtx)
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopBackground()
	wg.Wait()

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka consumers and producer
// 4. Redis client
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.rateLimiter.Close()

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka consumers and producer.
	if a.consumers != nil {
		if err := a.consumers.Close(); err != nil {
			a.logger.Error("kafka consumers close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close Redis client.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
