package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reliantech/storefront/internal/catalog"
	"github.com/reliantech/storefront/internal/config"
	"github.com/reliantech/storefront/internal/content"
	"github.com/reliantech/storefront/internal/document"
	"github.com/reliantech/storefront/internal/event"
	handler "github.com/reliantech/storefront/internal/handler/http"
	redisrepo "github.com/reliantech/storefront/internal/repository/redis"
	"github.com/reliantech/storefront/internal/service"
	"github.com/reliantech/storefront/pkg/health"
	"github.com/reliantech/storefront/pkg/httpclient"
	pkgkafka "github.com/reliantech/storefront/pkg/kafka"
	"github.com/reliantech/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	rdb             *redis.Client
	producer        *pkgkafka.Producer
	contentProvider *content.Provider
	httpServer      *http.Server
	tracerShutdown  func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing.
	tracerCfg := tracing.DefaultConfig("storefront")
	tracerCfg.Environment = cfg.Environment
	tracerCfg.OTLPEndpoint = cfg.OTLPEndpoint
	tracerCfg.Enabled = cfg.TracingEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracerCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Redis client for cart persistence.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka producer for the analytics side channel.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Outbound HTTP clients, one breaker per upstream.
	retryClient := httpclient.New(httpclient.DefaultConfig())
	catalogHTTP := httpclient.NewCircuitBreakerClient(retryClient, httpclient.DefaultCircuitBreakerConfig("catalog"), logger)
	contentHTTP := httpclient.NewCircuitBreakerClient(retryClient, httpclient.DefaultCircuitBreakerConfig("content"), logger)

	// Build the dependency graph.
	repo := redisrepo.NewCartRepository(rdb)
	eventProducer := event.NewProducer(producer, logger)
	cartService := service.NewCartService(repo, eventProducer, logger)
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, catalogHTTP, logger)
	contentProvider := content.NewProvider(cfg.ContentEndpoint, contentHTTP, cfg.ContentRefreshInterval, logger)
	documents := document.NewGenerator(document.DefaultConfig())

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})
	healthHandler.Register("catalog", catalogClient.Ping)

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		CartService:    cartService,
		Catalog:        catalogClient,
		Content:        contentProvider,
		Producer:       eventProducer,
		Documents:      documents,
		Health:         healthHandler,
		Logger:         logger,
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.AllowedOrigins,
		PprofCIDRs:     cfg.PprofCIDRs,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		rdb:             rdb,
		producer:        producer,
		contentProvider: contentProvider,
		httpServer:      httpServer,
		tracerShutdown:  tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	// Content snapshot refresh runs for the lifetime of the app. A failed
	// initial fetch is non-fatal; the provider serves empty until the CMS
	// responds.
	a.contentProvider.Start(ctx)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.contentProvider.Stop()

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
