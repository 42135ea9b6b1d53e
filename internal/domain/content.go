package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Content block type tags as they appear in the CMS aggregate.
const (
	ContentTypePage     = "page"
	ContentTypeCategory = "category"
	ContentTypePost     = "post"
)

// SupportedContentVersion is the aggregate schema version this storefront
// understands. Aggregates with a different version are rejected wholesale.
const SupportedContentVersion = 1

// ContentBundle holds all CMS-sourced content after boundary validation:
// static page bodies, category metadata, and blog posts.
type ContentBundle struct {
	Version    int
	Pages      map[string]Page
	Categories []Category
	Posts      []Post
}

// Page is a CMS text block (about, contact, warranty, terms).
type Page struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Category is catalog category metadata used for navigation and the local
// search matcher.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Post is a blog post.
type Post struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
}

// rawBundle is the wire shape of the CMS aggregate: a version plus a list of
// type-tagged blocks.
type rawBundle struct {
	Version int               `json:"version"`
	Blocks  []json.RawMessage `json:"blocks"`
}

type blockHeader struct {
	Type string `json:"type"`
}

// DecodeContentBundle validates the CMS aggregate at the fetch boundary.
// Unknown block types are dropped, individually malformed blocks are skipped,
// and a version or shape mismatch fails the whole decode so the caller can
// keep its previous good snapshot.
func DecodeContentBundle(data []byte) (*ContentBundle, error) {
	var raw rawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode content aggregate: %w", err)
	}
	if raw.Version != SupportedContentVersion {
		return nil, fmt.Errorf("unsupported content schema version %d", raw.Version)
	}

	bundle := &ContentBundle{
		Version: raw.Version,
		Pages:   make(map[string]Page),
	}

	for _, rawBlock := range raw.Blocks {
		var header blockHeader
		if err := json.Unmarshal(rawBlock, &header); err != nil {
			continue
		}

		switch header.Type {
		case ContentTypePage:
			var p Page
			if err := json.Unmarshal(rawBlock, &p); err != nil || p.Slug == "" {
				continue
			}
			bundle.Pages[p.Slug] = p
		case ContentTypeCategory:
			var c Category
			if err := json.Unmarshal(rawBlock, &c); err != nil || c.ID == "" {
				continue
			}
			bundle.Categories = append(bundle.Categories, c)
		case ContentTypePost:
			var p Post
			if err := json.Unmarshal(rawBlock, &p); err != nil || p.Slug == "" {
				continue
			}
			bundle.Posts = append(bundle.Posts, p)
		default:
			// Unknown block type: drop rather than trust an untyped blob.
		}
	}

	return bundle, nil
}
