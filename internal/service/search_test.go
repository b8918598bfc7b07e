package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmem "github.com/grovemarket/search-service/internal/catalog/memory"
	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/engine"
	enginemem "github.com/grovemarket/search-service/internal/engine/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newQueryFixture wires a memory engine and a memory catalog holding the
// same items, so both paths can serve the same queries. The gate has a zero
// TTL and probes on every call.
func newQueryFixture(t *testing.T) (*QueryService, *enginemem.Engine, *catalogmem.Store) {
	t.Helper()
	eng := enginemem.New()
	store := catalogmem.NewStore()
	gate := engine.NewGate(eng.Ping, 0)
	svc := NewQueryService(eng, gate, store, testLogger())

	items := []domain.CatalogItem{
		{ID: "1", Name: "Trail Running Shoes", Description: "Grippy trail shoe", Brand: "Apex", CategoryID: "cat-shoes", CategoryName: "Shoes", Price: 119.99, Rating: 4.7, ReviewCount: 210, CreatedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Name: "Road Running Shoes", Description: "Light road shoe", Brand: "Strider", CategoryID: "cat-shoes", CategoryName: "Shoes", Price: 89.50, Rating: 4.2, ReviewCount: 95, CreatedAt: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "3", Name: "Running Jacket", Description: "Windproof layer", Brand: "Apex", CategoryID: "cat-apparel", CategoryName: "Apparel", Price: 59.00, Rating: 4.5, ReviewCount: 40, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	ctx := context.Background()
	for i := range items {
		store.Put(items[i])
		doc := domain.IndexDocument{
			ID: items[i].ID, Name: items[i].Name, Description: items[i].Description,
			Brand: items[i].Brand, CategoryID: items[i].CategoryID, CategoryName: items[i].CategoryName,
			Price: items[i].Price, Rating: items[i].Rating, ReviewCount: items[i].ReviewCount,
			CreatedAt: items[i].CreatedAt,
		}
		require.NoError(t, eng.Upsert(ctx, &doc))
	}
	return svc, eng, store
}

func TestSearchEmptyTermReturnsEmptyResult(t *testing.T) {
	svc, _, _ := newQueryFixture(t)

	for _, term := range []string{"", "   ", "\t"} {
		result, err := svc.Search(context.Background(), &domain.SearchQuery{Term: term, Page: 1, PerPage: 10})
		require.NoError(t, err)
		assert.Zero(t, result.Total)
		assert.NotNil(t, result.Products)
		assert.Empty(t, result.Products)
	}
}

func TestSearchInvertedPriceRangeIsEmptyNotError(t *testing.T) {
	svc, _, _ := newQueryFixture(t)
	min, max := 100.0, 50.0

	result, err := svc.Search(context.Background(), &domain.SearchQuery{
		Term: "running", MinPrice: &min, MaxPrice: &max, Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Products)
}

func TestSearchUnknownSortDegradesToRelevance(t *testing.T) {
	svc, _, _ := newQueryFixture(t)

	result, err := svc.Search(context.Background(), &domain.SearchQuery{
		Term: "running", SortBy: "alphabetical", Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 3)
	// Relevance ranks by rating in the memory engine.
	assert.Equal(t, "1", result.Products[0].ID)
}

func TestSearchPaginationClamped(t *testing.T) {
	svc, _, _ := newQueryFixture(t)

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Term: "running", Page: -3, PerPage: 5000})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 100, result.PerPage)
	assert.Equal(t, 1, result.TotalPages)
}

func TestSearchPrimaryPathComputesFacets(t *testing.T) {
	svc, _, _ := newQueryFixture(t)

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Term: "running", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.ElementsMatch(t, []string{"Apex", "Strider"}, result.Facets.Brands)
	assert.False(t, result.Facets.Approximate)
}

func TestSearchFallsBackWhenEngineDown(t *testing.T) {
	svc, eng, _ := newQueryFixture(t)
	eng.SetDown(true)

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Term: "running", Page: 1, PerPage: 2})
	require.NoError(t, err)

	// Same shape and semantics as the primary path.
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Products, 2)
	assert.Equal(t, 2, result.TotalPages)
	assert.ElementsMatch(t, []string{"Apex", "Strider"}, result.Facets.Brands)
	assert.True(t, result.Facets.Approximate)
	for _, p := range result.Products {
		assert.Contains(t, p.Name, "Running")
	}
}

func TestSearchFallbackHonorsFilters(t *testing.T) {
	svc, eng, _ := newQueryFixture(t)
	eng.SetDown(true)
	brand := "Apex"
	min := 60.0

	result, err := svc.Search(context.Background(), &domain.SearchQuery{
		Term: "running", Brand: &brand, MinPrice: &min, Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "1", result.Products[0].ID)
}

func TestSearchFallbackExcludesSoftDeleted(t *testing.T) {
	svc, eng, store := newQueryFixture(t)
	eng.SetDown(true)
	store.Put(domain.CatalogItem{ID: "4", Name: "Running Socks", Brand: "Apex", Deleted: true})

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Term: "running", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
}

func TestSearchMarksGateDownAfterEngineFailure(t *testing.T) {
	eng := enginemem.New()
	store := catalogmem.NewStore()
	store.Put(domain.CatalogItem{ID: "1", Name: "Desk Lamp", Price: 25})

	probes := 0
	gate := engine.NewGate(func(ctx context.Context) error {
		probes++
		return nil
	}, time.Hour)
	svc := NewQueryService(eng, gate, store, testLogger())

	// Probe says healthy but the search itself fails; the failure must
	// close the gate so the next request skips the engine entirely.
	eng.SetDown(true)
	_, err := svc.Search(context.Background(), &domain.SearchQuery{Term: "lamp", Page: 1, PerPage: 10})
	require.NoError(t, err)

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Term: "lamp", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, probes)
}
