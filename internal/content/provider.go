package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/reliantech/storefront/internal/domain"
	"github.com/reliantech/storefront/pkg/httpclient"
)

// Provider supplies CMS-sourced content (static page bodies, category
// metadata, blog posts) to all pages. It fetches the aggregate once at
// startup and refreshes it on an interval; a failed or malformed fetch keeps
// the previous good snapshot, so readers always see a consistent bundle.
type Provider struct {
	endpoint string
	http     *httpclient.CircuitBreakerClient
	logger   *slog.Logger
	interval time.Duration

	mu     sync.RWMutex
	bundle *domain.ContentBundle

	stop chan struct{}
	done chan struct{}
}

// NewProvider creates a content provider against the given content API
// endpoint. The initial bundle is empty until Refresh or Start succeeds.
func NewProvider(endpoint string, client *httpclient.CircuitBreakerClient, interval time.Duration, logger *slog.Logger) *Provider {
	return &Provider{
		endpoint: endpoint,
		http:     client,
		logger:   logger,
		interval: interval,
		bundle: &domain.ContentBundle{
			Version: domain.SupportedContentVersion,
			Pages:   make(map[string]domain.Page),
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start performs the initial fetch and launches the background refresh loop.
// A failed initial fetch is logged, not fatal: the storefront starts with an
// empty bundle and picks up content on the next refresh.
func (p *Provider) Start(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		p.logger.WarnContext(ctx, "initial content fetch failed, starting with empty bundle",
			slog.String("error", err.Error()),
		)
	}

	go p.refreshLoop()
}

// Stop terminates the background refresh loop.
func (p *Provider) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Provider) refreshLoop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := p.Refresh(ctx); err != nil {
				p.logger.Warn("content refresh failed, keeping previous snapshot",
					slog.String("error", err.Error()),
				)
			}
			cancel()
		case <-p.stop:
			return
		}
	}
}

// Refresh fetches and validates the CMS aggregate, swapping it in atomically
// on success.
func (p *Provider) Refresh(ctx context.Context) error {
	resp, err := p.http.Get(ctx, p.endpoint)
	if err != nil {
		return fmt.Errorf("fetch content aggregate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, "content")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20)) // 8 MB limit
	if err != nil {
		return fmt.Errorf("read content aggregate: %w", err)
	}

	bundle, err := domain.DecodeContentBundle(data)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.bundle = bundle
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "content bundle refreshed",
		slog.Int("pages", len(bundle.Pages)),
		slog.Int("categories", len(bundle.Categories)),
		slog.Int("posts", len(bundle.Posts)),
	)

	return nil
}

// SetBundle replaces the current bundle directly. Intended for tests and for
// seeding defaults.
func (p *Provider) SetBundle(bundle *domain.ContentBundle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bundle = bundle
}

// Page returns the CMS page with the given slug.
func (p *Provider) Page(slug string) (domain.Page, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	page, ok := p.bundle.Pages[slug]
	return page, ok
}

// Categories returns a copy of the current category list.
func (p *Provider) Categories() []domain.Category {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Category, len(p.bundle.Categories))
	copy(out, p.bundle.Categories)
	return out
}

// Posts returns a copy of the current blog post list.
func (p *Provider) Posts() []domain.Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Post, len(p.bundle.Posts))
	copy(out, p.bundle.Posts)
	return out
}

// MarshalBundle serializes a bundle back to the wire aggregate format.
// Used by tests that stand up a fake content API.
func MarshalBundle(bundle *domain.ContentBundle) ([]byte, error) {
	blocks := make([]any, 0, len(bundle.Pages)+len(bundle.Categories)+len(bundle.Posts))
	for _, page := range bundle.Pages {
		blocks = append(blocks, struct {
			Type string `json:"type"`
			domain.Page
		}{domain.ContentTypePage, page})
	}
	for _, cat := range bundle.Categories {
		blocks = append(blocks, struct {
			Type string `json:"type"`
			domain.Category
		}{domain.ContentTypeCategory, cat})
	}
	for _, post := range bundle.Posts {
		blocks = append(blocks, struct {
			Type string `json:"type"`
			domain.Post
		}{domain.ContentTypePost, post})
	}

	return json.Marshal(map[string]any{
		"version": bundle.Version,
		"blocks":  blocks,
	})
}
