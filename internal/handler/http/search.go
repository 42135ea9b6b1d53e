package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/reliantech/storefront/internal/domain"
	"github.com/reliantech/storefront/internal/search"
	apperrors "github.com/reliantech/storefront/pkg/errors"
	"github.com/reliantech/storefront/pkg/httputil"
)

// SearchHandler serves both search surfaces backing the storefront's search
// overlay. Categories are matched against the local content snapshot;
// products come from the upstream search API.
//
// GET /search is a single stateless query. The as-you-type path is a pair of
// endpoints: GET /search/stream holds an SSE connection open and streams
// results, POST /search/query feeds keystrokes into the caller's
// search.Lookup coordinator, which debounces them and discards stale
// responses before anything reaches the stream.
type SearchHandler struct {
	categories search.CategorySource
	products   search.ProductSearcher
	debounce   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	streams map[string]*search.Lookup
}

// NewSearchHandler creates a new search HTTP handler. A zero debounce uses
// the coordinator's default.
func NewSearchHandler(categories search.CategorySource, products search.ProductSearcher, debounce time.Duration, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		categories: categories,
		products:   products,
		debounce:   debounce,
		logger:     logger,
		streams:    make(map[string]*search.Lookup),
	}
}

// SearchResponse is the combined search result payload.
type SearchResponse struct {
	Query      string            `json:"query"`
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
}

// Search handles GET /api/v1/search?q=
//
// Queries shorter than the minimum length return empty result sets without
// touching the upstream. A failed product search degrades to categories only.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	resp := SearchResponse{
		Query:      query,
		Categories: []domain.Category{},
		Products:   []domain.Product{},
	}

	if utf8.RuneCountInString(query) < search.MinQueryLength {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
		return
	}

	resp.Categories = search.MatchCategories(h.categories.Categories(), query)

	products, err := h.products.SearchProducts(r.Context(), query)
	if err != nil {
		h.logger.WarnContext(r.Context(), "product search unavailable, serving categories only",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	} else {
		resp.Products = products
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}

// streamEvent is one SSE payload on the as-you-type stream. Partial marks the
// immediate category-only result that precedes the remote product response.
type streamEvent struct {
	Query      string            `json:"query"`
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
	Partial    bool              `json:"partial"`
}

// Stream handles GET /api/v1/search/stream
//
// Holds an SSE connection open and delivers lookup results as the caller
// types. Each user has at most one live stream; opening a second one
// supersedes the first.
func (h *SearchHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "streaming unsupported"},
		})
		return
	}

	lookup := search.NewLookup(h.categories, h.products, h.debounce, h.logger)

	h.mu.Lock()
	if prev := h.streams[userID]; prev != nil {
		prev.Close()
	}
	h.streams[userID] = lookup
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if h.streams[userID] == lookup {
			delete(h.streams, userID)
		}
		h.mu.Unlock()
		lookup.Close()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case res := <-lookup.Results():
			payload, err := json.Marshal(streamEvent{
				Query:      res.Query,
				Categories: res.Categories,
				Products:   res.Products,
				Partial:    res.Partial,
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// streamQueryRequest is a keystroke update for the caller's search stream.
type streamQueryRequest struct {
	Query string `json:"query"`
}

// UpdateQuery handles POST /api/v1/search/query
//
// Feeds the caller's current input into their lookup coordinator. Debouncing
// means most calls produce nothing immediately; results arrive on the stream
// once the caller pauses.
func (h *SearchHandler) UpdateQuery(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	var req streamQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body"},
		})
		return
	}

	h.mu.Lock()
	lookup := h.streams[userID]
	h.mu.Unlock()

	if lookup == nil {
		httputil.WriteError(w, r, apperrors.NotFound("search stream", userID), h.logger)
		return
	}

	lookup.SetQuery(req.Query)
	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "accepted"}})
}
