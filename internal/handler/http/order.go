package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reliantech/storefront/internal/catalog"
	"github.com/reliantech/storefront/internal/event"
	"github.com/reliantech/storefront/pkg/httputil"
)

// OrderHandler serves the post-checkout order confirmation view. Orders are
// owned by the upstream commerce backend; the storefront only reads them.
type OrderHandler struct {
	catalog  *catalog.Client
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(client *catalog.Client, producer *event.Producer, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		catalog:  client,
		producer: producer,
		logger:   logger,
	}
}

// Get handles GET /api/v1/orders/{orderId}
//
// The confirmation fetch doubles as the purchase signal for analytics.
// Repeat views of the same confirmation are keyed by order ID and collapsed
// by the downstream pipeline.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	// Orders belong to their buyer. A record the upstream returns without an
	// owner is hidden too, never shown to whoever happens to ask.
	if order.UserID != userID {
		if order.UserID == "" {
			h.logger.WarnContext(r.Context(), "order record has no owner, refusing access",
				slog.String("order_id", orderID),
			)
		}
		httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "resource not found"},
		})
		return
	}

	h.producer.OrderPurchased(r.Context(), order)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
