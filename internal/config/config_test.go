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

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Minute, cfg.ContentRefreshInterval)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STOREFRONT_HTTP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CATALOG_BASE_URL", "https://commerce.internal/api/v1")
	t.Setenv("CONTENT_REFRESH_INTERVAL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.reliantech.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://commerce.internal/api/v1", cfg.CatalogBaseURL)
	assert.Equal(t, 90*time.Second, cfg.ContentRefreshInterval)
	assert.Equal(t, []string{"https://shop.reliantech.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "99999")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TinyRefreshIntervalRejected(t *testing.T) {
	t.Setenv("CONTENT_REFRESH_INTERVAL", "10ms")

	_, err := Load()
	assert.Error(t, err)
}
