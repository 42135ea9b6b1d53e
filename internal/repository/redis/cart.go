package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/reliantech/storefront/internal/domain"
	apperrors "github.com/reliantech/storefront/pkg/errors"
)

const keyPrefix = "cart:"

// CartRepository implements repository.CartRepository using Redis.
//
// A stored payload that fails to deserialize is treated as not found: the
// caller rehydrates an empty cart instead of surfacing an error, matching the
// discard-malformed-state persistence policy. Carts never auto-expire; the
// collection is destroyed only by an explicit Delete.
type CartRepository struct {
	client *redis.Client
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client) *CartRepository {
	return &CartRepository{client: client}
}

// Get retrieves a cart by user ID from Redis.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	key := keyPrefix + userID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		// Corrupt payload: discard it so the next Save starts clean.
		_ = r.client.Del(ctx, key).Err()
		return nil, apperrors.NotFound("cart", userID)
	}

	return &cart, nil
}

// Save persists a cart to Redis with no expiry.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	key := keyPrefix + cart.UserID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Delete removes a cart from Redis by user ID.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	key := keyPrefix + userID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}
