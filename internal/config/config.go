package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Remote backend
	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:1337"`
	BackendAppID   string        `env:"BACKEND_APP_ID" envDefault:"storefront"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	// Retries apply to read functions only; mutations are always sent once.
	BackendMaxRetries int `env:"BACKEND_MAX_RETRIES" envDefault:"0"`

	// Circuit breaker around the backend
	CBMaxRequests  uint32        `env:"BACKEND_CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     time.Duration `env:"BACKEND_CB_INTERVAL" envDefault:"60s"`
	CBTimeout      time.Duration `env:"BACKEND_CB_TIMEOUT" envDefault:"30s"`
	CBFailureRatio float64       `env:"BACKEND_CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32        `env:"BACKEND_CB_MIN_REQUESTS" envDefault:"5"`

	// Session tokens
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Pricing policy
	ShippingFlat decimal.Decimal `env:"PRICING_SHIPPING_FLAT" envDefault:"5.99"`
	TaxRate      decimal.Decimal `env:"PRICING_TAX_RATE" envDefault:"0.10"`

	// Checkout completion
	CheckoutSettleDelay   time.Duration `env:"CHECKOUT_SETTLE_DELAY" envDefault:"2s"`
	CheckoutPollInterval  time.Duration `env:"CHECKOUT_POLL_INTERVAL" envDefault:"500ms"`
	CheckoutSettleTimeout time.Duration `env:"CHECKOUT_SETTLE_TIMEOUT" envDefault:"10s"`

	// Cart views
	CartViewIdleTTL time.Duration `env:"CART_VIEW_IDLE_TTL" envDefault:"30m"`

	// Redis
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass       string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"storefront"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"200"`

	// Operator endpoints; empty means open.
	PprofAllowedCIDRs   []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.BackendMaxRetries < 0 {
		return fmt.Errorf("BACKEND_MAX_RETRIES must not be negative")
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("BACKEND_CB_FAILURE_RATIO must be in (0, 1]")
	}
	if c.Environment != "development" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed from default value in %s environment", c.Environment)
	}
	if c.ShippingFlat.IsNegative() {
		return fmt.Errorf("PRICING_SHIPPING_FLAT must not be negative")
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("PRICING_TAX_RATE must be in [0, 1)")
	}
	if c.CheckoutSettleDelay < 0 {
		return fmt.Errorf("CHECKOUT_SETTLE_DELAY must not be negative")
	}
	if c.CheckoutPollInterval <= 0 {
		return fmt.Errorf("CHECKOUT_POLL_INTERVAL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.CartViewIdleTTL <= 0 {
		return fmt.Errorf("CART_VIEW_IDLE_TTL must be positive")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
