package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/reliantech/storefront/internal/catalog"
	"github.com/reliantech/storefront/internal/content"
	"github.com/reliantech/storefront/internal/document"
	"github.com/reliantech/storefront/internal/domain"
	"github.com/reliantech/storefront/internal/event"
	"github.com/reliantech/storefront/internal/service"
	"github.com/reliantech/storefront/pkg/health"
	"github.com/reliantech/storefront/pkg/httpclient"
	pkgkafka "github.com/reliantech/storefront/pkg/kafka"
)

// --- Mock CartRepository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Shared fixtures ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func testBundle() *domain.ContentBundle {
	return &domain.ContentBundle{
		Version: domain.SupportedContentVersion,
		Pages: map[string]domain.Page{
			"about": {Slug: "about", Title: "About Us", Body: "Refurbished enterprise hardware."},
		},
		Categories: []domain.Category{
			{ID: "cat-servers", Name: "Rack Servers", Description: "Dell and HPE systems"},
		},
		Posts: []domain.Post{
			{Slug: "q3-stock", Title: "Q3 stock update", Body: "..."},
		},
	}
}

// testServer wires the full router against a mock cart repository and a fake
// upstream catalog, mirroring the production dependency graph.
type testServer struct {
	router http.Handler
	repo   *mockCartRepository
}

func newTestServer(t *testing.T, upstream http.HandlerFunc) *testServer {
	t.Helper()
	logger := testLogger()

	if upstream == nil {
		upstream = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}
	}
	catalogSrv := httptest.NewServer(upstream)
	t.Cleanup(catalogSrv.Close)

	httpCfg := httpclient.DefaultConfig()
	httpCfg.MaxRetries = 0
	httpCfg.Timeout = 2 * time.Second
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("catalog-test"),
		logger,
	)

	repo := new(mockCartRepository)
	producer := testEventProducer()
	cartService := service.NewCartService(repo, producer, logger)
	catalogClient := catalog.NewClient(catalogSrv.URL, cb, logger)

	provider := content.NewProvider(catalogSrv.URL, cb, time.Minute, logger)
	provider.SetBundle(testBundle())

	healthHandler := health.NewHandler()
	healthHandler.Register("catalog", catalogClient.Ping)

	router := NewRouter(RouterDeps{
		CartService:    cartService,
		Catalog:        catalogClient,
		Content:        provider,
		Producer:       producer,
		Documents:      document.NewGenerator(document.DefaultConfig()),
		Health:         healthHandler,
		Logger:         logger,
		Environment:    "development",
		AllowedOrigins: []string{"*"},
		PprofCIDRs:     []string{"127.0.0.0/8"},
		SearchDebounce: 20 * time.Millisecond,
	})

	return &testServer{router: router, repo: repo}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func storedCart(userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:     "cart-123",
		UserID: userID,
		Items: []domain.CartItem{
			{ProductID: "prod-1", Name: "PowerEdge R650", SKU: "PE-R650", Price: 249900, Quantity: 2},
		},
		Currency:  "USD",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
