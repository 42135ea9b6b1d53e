package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reliantech/storefront/internal/domain"
)

// MinQueryLength is the minimum query length (in runes) that triggers a
// lookup. Shorter queries clear prior results without issuing work.
const MinQueryLength = 2

// DefaultDebounce is the quiet period with no further keystrokes before a
// lookup fires.
const DefaultDebounce = 300 * time.Millisecond

var staleResponsesDropped = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "search_stale_responses_dropped_total",
		Help: "Total number of search responses discarded because a newer query superseded them",
	},
)

// CategorySource supplies the locally-held category list.
type CategorySource interface {
	Categories() []domain.Category
}

// ProductSearcher queries the remote product-search endpoint.
type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
}

// Result is one published lookup outcome. Categories are matched locally and
// arrive first; Products follow when the remote search responds. Partial is
// true while the remote half is still outstanding.
type Result struct {
	Query      string
	Categories []domain.Category
	Products   []domain.Product
	Partial    bool
}

// Lookup coordinates the as-you-type search: it debounces keystrokes,
// combines local category matching with a remote product search, and
// guarantees that only the most recently issued query's response is
// published. An older response that arrives after a newer query has been
// issued is discarded, never displayed.
type Lookup struct {
	categories CategorySource
	products   ProductSearcher
	logger     *slog.Logger
	debounce   time.Duration

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	closed     bool

	results chan Result
}

// NewLookup creates a lookup coordinator. If debounce is zero,
// DefaultDebounce is used.
func NewLookup(categories CategorySource, products ProductSearcher, debounce time.Duration, logger *slog.Logger) *Lookup {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Lookup{
		categories: categories,
		products:   products,
		logger:     logger,
		debounce:   debounce,
		results:    make(chan Result, 8),
	}
}

// Results returns the channel on which lookup outcomes are delivered.
func (l *Lookup) Results() <-chan Result {
	return l.results
}

// SetQuery registers a new keystroke state. Any pending debounce timer is
// restarted and any in-flight remote response is logically cancelled: its
// result will be dropped when it arrives. Queries shorter than
// MinQueryLength clear prior results immediately and issue no work.
func (l *Lookup) SetQuery(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.generation++
	gen := l.generation

	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}

	if utf8.RuneCountInString(query) < MinQueryLength {
		l.publish(Result{Query: query, Categories: []domain.Category{}, Products: []domain.Product{}})
		return
	}

	l.timer = time.AfterFunc(l.debounce, func() {
		l.fire(gen, query)
	})
}

// Close stops any pending debounce timer and prevents further publishes.
func (l *Lookup) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// fire runs once the debounce quiet period elapses for a given generation.
func (l *Lookup) fire(gen uint64, query string) {
	// Local category matching is synchronous and published immediately.
	categories := MatchCategories(l.categories.Categories(), query)
	if !l.publishIfCurrent(gen, Result{
		Query:      query,
		Categories: categories,
		Products:   []domain.Product{},
		Partial:    true,
	}) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	products, err := l.products.SearchProducts(ctx, query)
	if err != nil {
		// Transient remote failure degrades to no product matches; the
		// category matches stand.
		l.logger.WarnContext(ctx, "remote product search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		products = []domain.Product{}
	}

	l.publishIfCurrent(gen, Result{
		Query:      query,
		Categories: categories,
		Products:   products,
	})
}

// publishIfCurrent publishes the result only if gen is still the latest
// issued generation. Returns false when the result was stale and dropped.
func (l *Lookup) publishIfCurrent(gen uint64, res Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	if gen != l.generation {
		staleResponsesDropped.Inc()
		return false
	}

	l.publish(res)
	return true
}

// publish delivers a result with latest-wins semantics: if the consumer is
// behind, the oldest undelivered result is dropped to make room.
func (l *Lookup) publish(res Result) {
	for {
		select {
		case l.results <- res:
			return
		default:
			select {
			case <-l.results:
			default:
			}
		}
	}
}
