package search

import (
	"strings"

	"github.com/reliantech/storefront/internal/domain"
)

// MatchCategories filters a category list by case-insensitive substring match
// against name and description. This path is purely local and has no network
// latency; results update as soon as a lookup fires.
func MatchCategories(categories []domain.Category, query string) []domain.Category {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.Category{}
	}

	matched := make([]domain.Category, 0)
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Description), q) {
			matched = append(matched, c)
		}
	}
	return matched
}
