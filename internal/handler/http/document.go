package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reliantech/storefront/internal/catalog"
	"github.com/reliantech/storefront/internal/document"
	"github.com/reliantech/storefront/internal/service"
	"github.com/reliantech/storefront/pkg/httputil"
)

// DocumentHandler renders quotes and invoices as PDF downloads. Documents are
// generated on demand and never stored; a failed upstream fetch aborts the
// download instead of producing a placeholder file.
type DocumentHandler struct {
	cart      *service.CartService
	catalog   *catalog.Client
	generator *document.Generator
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document HTTP handler.
func NewDocumentHandler(cart *service.CartService, catalogClient *catalog.Client, gen *document.Generator, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		cart:      cart,
		catalog:   catalogClient,
		generator: gen,
		logger:    logger,
	}
}

// Quote handles POST /api/v1/documents/quote
//
// The quote is rendered from the caller's live cart. An empty cart is a 422.
func (h *DocumentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	cart, err := h.cart.GetCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	doc, err := h.generator.Quote(cart, time.Now())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "quote generated",
		slog.String("ref", doc.Ref),
		slog.Int("items", len(cart.Items)),
	)

	writePDF(w, doc)
}

// Invoice handles GET /api/v1/orders/{orderId}/invoice
func (h *DocumentHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "orderId is required"},
		})
		return
	}

	order, err := h.catalog.GetOrder(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Orders belong to their buyer; never render another user's invoice. A
	// record with no owner is hidden too rather than served to anyone.
	if order.UserID != userID {
		if order.UserID == "" {
			h.logger.WarnContext(r.Context(), "order record has no owner, refusing invoice",
				slog.String("order_id", orderID),
			)
		}
		httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "resource not found"},
		})
		return
	}

	doc, err := h.generator.Invoice(order)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "invoice generated",
		slog.String("order_id", orderID),
	)

	writePDF(w, doc)
}

func writePDF(w http.ResponseWriter, doc *document.Document) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}
