package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reliantech/storefront/internal/catalog"
	"github.com/reliantech/storefront/internal/domain"
	"github.com/reliantech/storefront/pkg/httputil"
	"github.com/reliantech/storefront/pkg/validator"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

// ProductHandler handles HTTP requests for the product catalog endpoints.
// The catalog is owned upstream; this handler reads and forwards.
type ProductHandler struct {
	catalog *catalog.Client
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(client *catalog.Client, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: client,
		logger:  logger,
	}
}

// SubmitReviewRequest is the JSON request body for posting a product review.
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string `json:"title" validate:"max=200"`
	Comment string `json:"comment" validate:"required,min=1,max=5000"`
}

// List handles GET /api/v1/products
//
// A failed upstream listing degrades to an empty page rather than an error:
// the storefront grid renders empty and recovers on the next fetch.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params := catalog.ListParams{
		Limit:    defaultPageSize,
		Sort:     r.URL.Query().Get("sort"),
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageSize {
			params.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			params.Offset = n
		}
	}

	page, err := h.catalog.ListProducts(r.Context(), params)
	if err != nil {
		h.logger.WarnContext(r.Context(), "product listing unavailable, serving empty page",
			slog.String("error", err.Error()),
		)
		page = &catalog.ProductPage{Items: []domain.Product{}, Total: 0}
	}

	pageNum := params.Offset/params.Limit + 1
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(page.Items, page.Total, pageNum, params.Limit))
}

// Get handles GET /api/v1/products/{productId}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// SubmitReview handles POST /api/v1/products/{productId}/reviews
func (h *ProductHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review := domain.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	}

	if err := h.catalog.SubmitReview(r.Context(), productID, review); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "submitted"}})
}
