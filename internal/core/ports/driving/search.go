package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// SearchService runs content searches with optional course and lesson filters.
type SearchService interface {
	// Search resolves an optional course hint and returns ranked passages.
	// A hint that resolves to nothing returns an error wrapping domain.ErrNotFound.
	// A search that finds nothing returns an empty result, not an error.
	Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)
}
