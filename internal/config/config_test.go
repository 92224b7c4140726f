package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "5.99", cfg.ShippingFlat.String())
	assert.Equal(t, "0.1", cfg.TaxRate.String())
	assert.Equal(t, 2*time.Second, cfg.CheckoutSettleDelay)
	assert.Equal(t, 30*time.Minute, cfg.CartViewIdleTTL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.MetricsAllowedCIDRs)
	assert.Zero(t, cfg.BackendMaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, uint32(5), cfg.CBMinRequests)
}

func TestLoad_PricingPolicy(t *testing.T) {
	t.Setenv("PRICING_SHIPPING_FLAT", "0")
	t.Setenv("PRICING_TAX_RATE", "0.0825")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.ShippingFlat.IsZero())
	assert.Equal(t, "0.0825", cfg.TaxRate.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port", map[string]string{"STOREFRONT_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"tax rate of one", map[string]string{"PRICING_TAX_RATE": "1"}, "PRICING_TAX_RATE"},
		{"negative tax rate", map[string]string{"PRICING_TAX_RATE": "-0.1"}, "PRICING_TAX_RATE"},
		{"negative shipping", map[string]string{"PRICING_SHIPPING_FLAT": "-1"}, "PRICING_SHIPPING_FLAT"},
		{"bad decimal", map[string]string{"PRICING_SHIPPING_FLAT": "five"}, "invalid decimal"},
		{"poll interval", map[string]string{"CHECKOUT_POLL_INTERVAL": "0s"}, "CHECKOUT_POLL_INTERVAL"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"jwt secret in production", map[string]string{"ENVIRONMENT": "production"}, "JWT_SECRET"},
		{"rate limit", map[string]string{"RATE_LIMIT_RPS": "0"}, "RATE_LIMIT_RPS"},
		{"session ttl", map[string]string{"SESSION_TTL": "0s"}, "SESSION_TTL"},
		{"breaker ratio", map[string]string{"BACKEND_CB_FAILURE_RATIO": "0"}, "BACKEND_CB_FAILURE_RATIO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cr3t-from-vault")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("METRICS_ALLOWED_CIDRS", "10.0.0.0/8")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.MetricsAllowedCIDRs)
}
