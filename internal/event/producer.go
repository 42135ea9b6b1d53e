package event

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reliantech/storefront/internal/domain"
	pkgkafka "github.com/reliantech/storefront/pkg/kafka"
)

// Kafka topic constants for storefront analytics events.
const (
	TopicCartViewed     = "storefront.cart.viewed"
	TopicCartItemAdded  = "storefront.cart.item_added"
	TopicCartItemRemove = "storefront.cart.item_removed"
	TopicOrderPurchased = "storefront.order.purchased"
	TopicPageViewed     = "storefront.page.viewed"
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// Source identifier for events originating from the storefront.
const SourceStorefront = "storefront"

var analyticsPublishFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "analytics_publish_failures_total",
		Help: "Total number of analytics events that failed to publish",
	},
	[]string{"topic"},
)

// CartEventData is the payload for cart analytics events. It carries the item
// identity, unit price, quantity, and the aggregate cart value after the
// mutation committed.
type CartEventData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name,omitempty"`
	Price     int64  `json:"price,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	CartCount int    `json:"cart_count"`
	CartValue int64  `json:"cart_value"`
	Currency  string `json:"currency"`
}

// PurchaseEventData is the payload for an order.purchased event.
type PurchaseEventData struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	Value   int64  `json:"value"`
	Items   int    `json:"items"`
}

// PageViewData is the payload for a page.viewed event.
type PageViewData struct {
	UserID string `json:"user_id,omitempty"`
	Path   string `json:"path"`
}

// Producer publishes storefront analytics events to Kafka.
//
// All publishes are fire-and-forget: a failed publish is logged and counted
// but never surfaces to the caller, so analytics outages cannot interrupt the
// user action they are attached to.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new analytics event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// CartViewed publishes a cart.viewed event.
func (p *Producer) CartViewed(ctx context.Context, cart *domain.Cart) {
	p.publish(ctx, TopicCartViewed, cart.UserID, CartEventData{
		UserID:    cart.UserID,
		CartCount: cart.ItemCount(),
		CartValue: cart.TotalAmount(),
		Currency:  cart.Currency,
	})
}

// ItemAdded publishes a cart.item_added event for the given item.
func (p *Producer) ItemAdded(ctx context.Context, cart *domain.Cart, item domain.CartItem) {
	p.publish(ctx, TopicCartItemAdded, cart.UserID, CartEventData{
		UserID:    cart.UserID,
		ProductID: item.ProductID,
		SKU:       item.SKU,
		Name:      item.Name,
		Price:     item.Price,
		Quantity:  item.Quantity,
		CartCount: cart.ItemCount(),
		CartValue: cart.TotalAmount(),
		Currency:  cart.Currency,
	})
}

// ItemRemoved publishes a cart.item_removed event for the given item.
func (p *Producer) ItemRemoved(ctx context.Context, cart *domain.Cart, item domain.CartItem) {
	p.publish(ctx, TopicCartItemRemove, cart.UserID, CartEventData{
		UserID:    cart.UserID,
		ProductID: item.ProductID,
		SKU:       item.SKU,
		Name:      item.Name,
		Price:     item.Price,
		Quantity:  item.Quantity,
		CartCount: cart.ItemCount(),
		CartValue: cart.TotalAmount(),
		Currency:  cart.Currency,
	})
}

// OrderPurchased publishes an order.purchased event.
func (p *Producer) OrderPurchased(ctx context.Context, order *domain.Order) {
	p.publish(ctx, TopicOrderPurchased, order.ID, PurchaseEventData{
		UserID:  order.UserID,
		OrderID: order.ID,
		Value:   order.TotalAmount,
		Items:   len(order.Items),
	})
}

// PageViewed publishes a page.viewed event.
func (p *Producer) PageViewed(ctx context.Context, userID, path string) {
	p.publish(ctx, TopicPageViewed, userID, PageViewData{
		UserID: userID,
		Path:   path,
	})
}

// publish is the failure boundary shared by all event kinds.
func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) {
	ev, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		analyticsPublishFailures.WithLabelValues(topic).Inc()
		p.logger.ErrorContext(ctx, "failed to build analytics event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		analyticsPublishFailures.WithLabelValues(topic).Inc()
		p.logger.ErrorContext(ctx, "failed to publish analytics event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}
}
