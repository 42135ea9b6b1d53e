package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/reliantech/storefront/internal/domain"
	"github.com/reliantech/storefront/pkg/httpclient"
)

// ListParams are the paging, sorting, and filtering options for product lists.
type ListParams struct {
	Limit    int
	Offset   int
	Sort     string
	Category string
	Query    string
}

// ProductPage is one page of a paginated product listing.
type ProductPage struct {
	Items []domain.Product `json:"items"`
	Total int              `json:"total"`
}

// Client talks to the upstream catalog and orders REST API. All calls go
// through a retrying HTTP client wrapped in a circuit breaker; the storefront
// never owns this data, it only reads and forwards it.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// NewClient creates a catalog API client against the given base URL.
func NewClient(baseURL string, http *httpclient.CircuitBreakerClient, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    http,
		logger:  logger,
	}
}

// ListProducts fetches a paginated, filtered, sorted product list.
func (c *Client) ListProducts(ctx context.Context, params ListParams) (*ProductPage, error) {
	q := url.Values{}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.Sort != "" {
		q.Set("sort", params.Sort)
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.Query != "" {
		q.Set("q", params.Query)
	}

	endpoint := c.baseURL + "/products/paginated"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var page ProductPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode product page: %w", err)
	}
	if page.Items == nil {
		page.Items = []domain.Product{}
	}

	return &page, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	resp, err := c.http.Get(ctx, c.baseURL+"/products/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var product domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}

	return &product, nil
}

// SearchProducts queries the upstream full-text product search endpoint.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	endpoint := c.baseURL + "/products/search?q=" + url.QueryEscape(query)

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var products []domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// SubmitReview posts a product review upstream.
func (c *Client) SubmitReview(ctx context.Context, productID string, review domain.Review) error {
	body, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}

	endpoint := c.baseURL + "/products/" + url.PathEscape(productID) + "/reviews"
	resp, err := c.http.Post(ctx, endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit review: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, "catalog")
	}

	return nil
}

// GetOrder fetches a confirmed order record by ID from the orders API.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	resp, err := c.http.Get(ctx, c.baseURL+"/orders/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "orders")
	}

	var order domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}

	return &order, nil
}

// Ping reports whether the catalog API is reachable. Used as a readiness
// checker; any HTTP response counts as reachable, only transport failures
// (and an open circuit) report the catalog as down.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.Get(ctx, c.baseURL+"/products/paginated?limit=1")
	if err != nil {
		return fmt.Errorf("catalog unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}
