package domain

import "time"

// Stock status constants reported by the upstream catalog.
const (
	StockStatusInStock    = "IN_STOCK"
	StockStatusBackorder  = "BACKORDER"
	StockStatusOutOfStock = "OUT_OF_STOCK"
)

// Product represents a catalog product as served by the upstream catalog API.
// The storefront does not own products; it snapshots the fields it needs.
type Product struct {
	ID          string            `json:"id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       int64             `json:"price"`
	Currency    string            `json:"currency"`
	ImageURL    string            `json:"image_url,omitempty"`
	Category    string            `json:"category,omitempty"`
	Brand       string            `json:"brand,omitempty"`
	StockStatus string            `json:"stock_status"`
	StockLevel  *int              `json:"stock_level,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Specs       map[string]string `json:"specs,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at,omitempty"`
}

// InStock reports whether the product can currently be added to a cart
// without triggering the quote-for-excess prompt.
func (p *Product) InStock() bool {
	return p.StockStatus == StockStatusInStock
}

// Review is a product review submitted through the storefront.
type Review struct {
	ProductID string    `json:"product_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Author    string    `json:"author,omitempty"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}
