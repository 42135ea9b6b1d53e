package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reliantech/storefront/internal/domain"
	"github.com/reliantech/storefront/internal/event"
	"github.com/reliantech/storefront/internal/repository"
	apperrors "github.com/reliantech/storefront/pkg/errors"
)

// DefaultCurrency is assumed for carts until multi-currency pricing lands
// upstream.
const DefaultCurrency = "USD"

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID  string `json:"product_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	SKU        string `json:"sku" validate:"required"`
	Price      int64  `json:"price" validate:"gte=0"`
	Quantity   int    `json:"quantity" validate:"required,gte=1"`
	ImageURL   string `json:"image_url"`
	StockLevel *int   `json:"stock_level"`
}

// CartService implements the business logic for cart operations.
//
// Persistence is best-effort in both directions: an unreadable or malformed
// stored cart degrades to an empty cart, and a failed write degrades to "cart
// not persisted" while the mutation still takes effect for the caller. Stock
// limits are deliberately NOT enforced here; the caller checks stock before
// adding and surfaces a quote-for-excess prompt for overages.
type CartService struct {
	repo     repository.CartRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// GetCart retrieves the cart for a user. A missing, unreadable, or malformed
// stored cart yields an empty cart, never an error.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart := s.loadOrEmpty(ctx, userID)

	s.producer.CartViewed(ctx, cart)

	return cart, nil
}

// AddItem adds an item to the user's cart. If the same product already exists,
// it merges by incrementing the quantity and refreshing the product snapshot.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	cart := s.loadOrEmpty(ctx, userID)

	idx := cart.FindItemIndex(input.ProductID)
	if idx >= 0 {
		cart.Items[idx].Quantity += input.Quantity
		// Refresh the snapshot in case the product changed upstream.
		cart.Items[idx].Price = input.Price
		cart.Items[idx].Name = input.Name
		cart.Items[idx].SKU = input.SKU
		cart.Items[idx].ImageURL = input.ImageURL
		cart.Items[idx].StockLevel = input.StockLevel
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID:  input.ProductID,
			Name:       input.Name,
			SKU:        input.SKU,
			Price:      input.Price,
			Quantity:   input.Quantity,
			ImageURL:   input.ImageURL,
			StockLevel: input.StockLevel,
		})
		idx = len(cart.Items) - 1
	}

	cart.UpdatedAt = time.Now().UTC()
	s.persist(ctx, cart)

	s.producer.ItemAdded(ctx, cart, cart.Items[idx])

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", input.ProductID),
		slog.Int("quantity", input.Quantity),
	)

	return cart, nil
}

// UpdateItemQuantity sets the quantity of an item exactly. A quantity below 1
// is rejected and leaves the cart unchanged; removal is a separate explicit
// action.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1; remove the item instead")
	}

	cart := s.loadOrEmpty(ctx, userID)

	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}

	cart.Items[idx].Quantity = quantity
	cart.UpdatedAt = time.Now().UTC()
	s.persist(ctx, cart)

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// RemoveItem removes a specific item from the cart. Removing an absent item
// is a no-op success, so repeated removals are idempotent.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	cart := s.loadOrEmpty(ctx, userID)

	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return cart, nil
	}

	removed := cart.Items[idx]
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	cart.UpdatedAt = time.Now().UTC()
	s.persist(ctx, cart)

	s.producer.ItemRemoved(ctx, cart, removed)

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return cart, nil
}

// ClearCart removes all items from the user's cart unconditionally.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "cart clear not persisted",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("user_id", userID),
	)

	return nil
}

// loadOrEmpty retrieves the stored cart, falling back to a fresh empty cart on
// any failure. Startup and reads never block on persistence problems.
func (s *CartService) loadOrEmpty(ctx context.Context, userID string) *domain.Cart {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "cart load failed, starting empty",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return s.newEmptyCart(userID)
	}
	return cart
}

// persist writes the cart back, swallowing failures.
func (s *CartService) persist(ctx context.Context, cart *domain.Cart) {
	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger.WarnContext(ctx, "cart not persisted",
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// newEmptyCart creates a new empty cart for the given user.
func (s *CartService) newEmptyCart(userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     []domain.CartItem{},
		Currency:  DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
