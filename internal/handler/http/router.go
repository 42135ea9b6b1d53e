package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reliantech/storefront/internal/catalog"
	"github.com/reliantech/storefront/internal/content"
	"github.com/reliantech/storefront/internal/document"
	"github.com/reliantech/storefront/internal/event"
	"github.com/reliantech/storefront/internal/service"
	"github.com/reliantech/storefront/pkg/health"
	"github.com/reliantech/storefront/pkg/middleware"
)

// RouterDeps bundles everything the router wires into handlers.
type RouterDeps struct {
	CartService    *service.CartService
	Catalog        *catalog.Client
	Content        *content.Provider
	Producer       *event.Producer
	Documents      *document.Generator
	Health         *health.Handler
	Logger         *slog.Logger
	Environment    string
	AllowedOrigins []string
	PprofCIDRs     []string
	SearchDebounce time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.Environment = deps.Environment
	if len(deps.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = deps.AllowedOrigins
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(corsCfg))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, deps.PprofCIDRs, deps.Logger)

	cartHandler := NewCartHandler(deps.CartService, deps.Logger)
	productHandler := NewProductHandler(deps.Catalog, deps.Logger)
	searchHandler := NewSearchHandler(deps.Content, deps.Catalog, deps.SearchDebounce, deps.Logger)
	contentHandler := NewContentHandler(deps.Content, deps.Producer, deps.Logger)
	orderHandler := NewOrderHandler(deps.Catalog, deps.Producer, deps.Logger)
	documentHandler := NewDocumentHandler(deps.CartService, deps.Catalog, deps.Documents, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Catalog reads are public and cacheable.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))

			r.Get("/products", productHandler.List)
			r.Get("/products/{productId}", productHandler.Get)
			r.Get("/search", searchHandler.Search)
			r.Get("/content/pages/{slug}", contentHandler.GetPage)
			r.Get("/content/categories", contentHandler.ListCategories)
			r.Get("/content/posts", contentHandler.ListPosts)
		})

		// Everything below requires a caller identity.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(UserIDFromHeader)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)

				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
			})

			r.Post("/products/{productId}/reviews", productHandler.SubmitReview)

			r.Get("/search/stream", searchHandler.Stream)
			r.Post("/search/query", searchHandler.UpdateQuery)

			r.Get("/orders/{orderId}", orderHandler.Get)
			r.Get("/orders/{orderId}/invoice", documentHandler.Invoice)
			r.Post("/documents/quote", documentHandler.Quote)
		})
	})

	return r
}
