package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reliantech/storefront/internal/content"
	"github.com/reliantech/storefront/internal/event"
	"github.com/reliantech/storefront/pkg/httputil"
)

// ContentHandler serves the CMS-backed marketing content: static pages,
// category navigation and blog posts. All reads come from the last good
// in-memory snapshot; no request ever blocks on the CMS.
type ContentHandler struct {
	provider *content.Provider
	producer *event.Producer
	logger   *slog.Logger
}

// NewContentHandler creates a new content HTTP handler.
func NewContentHandler(provider *content.Provider, producer *event.Producer, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		provider: provider,
		producer: producer,
		logger:   logger,
	}
}

// GetPage handles GET /api/v1/content/pages/{slug}
func (h *ContentHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, ok := h.provider.Page(slug)
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "page not found"},
		})
		return
	}

	userID, _ := userIDFromContext(r.Context())
	h.producer.PageViewed(r.Context(), userID, r.URL.Path)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// ListCategories handles GET /api/v1/content/categories
func (h *ContentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.provider.Categories()})
}

// ListPosts handles GET /api/v1/content/posts
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.provider.Posts()})
}
