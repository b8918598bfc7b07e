package indexer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovemarket/search-service/internal/domain"
)

func TestMapItem(t *testing.T) {
	created := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	t.Run("maps all fields", func(t *testing.T) {
		item := &domain.CatalogItem{
			ID:           "item-1",
			Name:         "Ceramic Mug",
			Description:  "Stoneware mug, 350ml",
			Brand:        "Kilnworks",
			CategoryID:   "cat-kitchen",
			CategoryName: "Kitchen",
			Price:        14.50,
			Rating:       4.4,
			ReviewCount:  87,
			CreatedAt:    created,
			UpdatedAt:    created,
		}

		doc, err := MapItem(item)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "item-1", doc.ID)
		assert.Equal(t, "Ceramic Mug", doc.Name)
		assert.Equal(t, "Kilnworks", doc.Brand)
		assert.Equal(t, "Kitchen", doc.CategoryName)
		assert.Equal(t, 14.50, doc.Price)
		assert.Equal(t, 87, doc.ReviewCount)
		assert.Equal(t, created, doc.CreatedAt)
	})

	t.Run("soft deleted item maps to nil", func(t *testing.T) {
		doc, err := MapItem(&domain.CatalogItem{ID: "item-2", Name: "Gone", Deleted: true})
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("missing id fails", func(t *testing.T) {
		_, err := MapItem(&domain.CatalogItem{Name: "No ID"})
		assert.Error(t, err)
	})

	t.Run("missing name fails", func(t *testing.T) {
		_, err := MapItem(&domain.CatalogItem{ID: "item-3"})
		assert.Error(t, err)
	})
}
