// Package indexer keeps the search index a faithful projection of the
// catalog: it maps catalog rows to index documents, runs full rebuilds and
// single-item syncs, and drains a bounded queue of sync work triggered by
// catalog change events.
package indexer

import (
	"fmt"

	"github.com/grovemarket/search-service/internal/domain"
)

// MapItem converts a catalog row into its index document. Soft-deleted items
// return (nil, nil): the caller must treat that as a delete instruction, so
// deleted items can never leak into the index through any code path.
func MapItem(item *domain.CatalogItem) (*domain.IndexDocument, error) {
	if item.Deleted {
		return nil, nil
	}
	if item.ID == "" {
		return nil, fmt.Errorf("map item: missing id")
	}
	if item.Name == "" {
		return nil, fmt.Errorf("map item %s: missing name", item.ID)
	}

	return &domain.IndexDocument{
		ID:           item.ID,
		Name:         item.Name,
		Description:  item.Description,
		Brand:        item.Brand,
		CategoryID:   item.CategoryID,
		CategoryName: item.CategoryName,
		Price:        item.Price,
		Rating:       item.Rating,
		ReviewCount:  item.ReviewCount,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}, nil
}
