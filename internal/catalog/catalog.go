// Package catalog defines the read-side contract against the catalog store,
// the relational source of truth for sellable items. The search service only
// reads from it: full pages during reindexing, single fresh rows during
// incremental sync, and filtered substring queries on the fallback path.
package catalog

import (
	"context"

	"github.com/grovemarket/search-service/internal/domain"
)

// Filter is the structured query applied by FindMany, Count, and
// DistinctBrands. Term is matched case-insensitively as a substring of the
// item name, description, and brand. Soft-deleted items never match.
type Filter struct {
	Term       string
	CategoryID *string
	Brand      *string
	MinPrice   *float64
	MaxPrice   *float64
}

// Page bounds a FindMany call.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Store is the catalog read interface.
type Store interface {
	// FindByID returns the item, including soft-deleted ones with Deleted
	// set, so that sync can distinguish "remove from index" from "absent".
	// Returns errors.ErrNotFound (pkg/errors) when no row exists.
	FindByID(ctx context.Context, id string) (*domain.CatalogItem, error)

	// FindMany returns one page of non-deleted items matching the filter,
	// ordered by the given sort key (see domain sort constants; relevance
	// degrades to rating descending).
	FindMany(ctx context.Context, f Filter, p Page, sortBy string) ([]domain.CatalogItem, error)

	// Count returns the number of non-deleted items matching the filter.
	Count(ctx context.Context, f Filter) (int, error)

	// DistinctBrands returns the distinct non-empty brand values among
	// non-deleted items matching the filter, ordered alphabetically.
	DistinctBrands(ctx context.Context, f Filter) ([]string, error)
}
