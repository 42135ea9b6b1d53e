package domain

import "time"

// Cart represents a shopping cart. Display order follows insertion order.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is a product snapshot plus a requested quantity. The cart holds at
// most one item per product ID; adding the same product again merges by
// incrementing the quantity.
type CartItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	Price      int64  `json:"price"`
	Quantity   int    `json:"quantity"`
	ImageURL   string `json:"image_url,omitempty"`
	StockLevel *int   `json:"stock_level,omitempty"`
}

// LineTotal returns the total price for this line item (in cents).
func (i *CartItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// TotalAmount calculates the total price of all items in the cart (in cents).
// Recomputed on every call; totals are never cached.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// ItemCount returns the total number of units across all items in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItemIndex returns the index of the cart item matching the given product
// ID, or -1 if not found.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
