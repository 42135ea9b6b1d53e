package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/reliantech/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Redis (cart persistence)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka (analytics events)
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Upstream commerce backend
	CatalogBaseURL string `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8001/api/v1"`

	// CMS content aggregate
	ContentEndpoint        string        `env:"CONTENT_ENDPOINT" envDefault:"http://localhost:8005/api/v1/content/bundle"`
	ContentRefreshInterval time.Duration `env:"CONTENT_REFRESH_INTERVAL" envDefault:"5m"`

	// Tracing
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`

	// Debug endpoints
	PprofCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,10.0.0.0/8" envSeparator:","`

	// CORS
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
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
	if _, err := url.Parse(c.CatalogBaseURL); err != nil {
		return fmt.Errorf("invalid catalog base URL: %w", err)
	}
	if c.ContentRefreshInterval < time.Second {
		return fmt.Errorf("content refresh interval too small: %s", c.ContentRefreshInterval)
	}
	return nil
}
