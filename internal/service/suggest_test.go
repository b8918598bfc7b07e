package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovemarket/search-service/internal/cache"
	catalogmem "github.com/grovemarket/search-service/internal/catalog/memory"
	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/engine"
	enginemem "github.com/grovemarket/search-service/internal/engine/memory"
)

func newSuggestFixture(t *testing.T, c cache.SuggestionCache) (*SuggestionService, *enginemem.Engine, *catalogmem.Store) {
	t.Helper()
	eng := enginemem.New()
	store := catalogmem.NewStore()
	gate := engine.NewGate(eng.Ping, 0)
	svc := NewSuggestionService(eng, gate, store, c, testLogger())

	items := []domain.CatalogItem{
		{ID: "1", Name: "Runner Pro Shoes", Brand: "Runfast", CategoryID: "cat-shoes", CategoryName: "Running Gear", Rating: 4.8, ReviewCount: 300},
		{ID: "2", Name: "Trail Shoes", Brand: "Apex", CategoryID: "cat-shoes", CategoryName: "Running Gear", Rating: 4.5, ReviewCount: 120},
		{ID: "3", Name: "Espresso Machine", Brand: "Brewline", CategoryID: "cat-kitchen", CategoryName: "Kitchen", Rating: 4.9, ReviewCount: 512},
	}
	ctx := context.Background()
	for i := range items {
		store.Put(items[i])
		doc := domain.IndexDocument{
			ID: items[i].ID, Name: items[i].Name, Brand: items[i].Brand,
			CategoryID: items[i].CategoryID, CategoryName: items[i].CategoryName,
			Rating: items[i].Rating, ReviewCount: items[i].ReviewCount,
		}
		require.NoError(t, eng.Upsert(ctx, &doc))
	}
	return svc, eng, store
}

func TestSuggestEmptyTermReturnsNothing(t *testing.T) {
	svc, _, _ := newSuggestFixture(t, nil)

	for _, term := range []string{"", "  ", "\n"} {
		got, err := svc.Suggest(context.Background(), term, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	}
}

func TestSuggestTierOrdering(t *testing.T) {
	svc, _, _ := newSuggestFixture(t, nil)

	// "run" matches an item name, a brand, and a category name. Names come
	// first, then brands, then categories.
	got, err := svc.Suggest(context.Background(), "run", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Runner Pro Shoes", "Runfast", "Running Gear"}, got)
}

func TestSuggestDeduplicatesAndCapsAtLimit(t *testing.T) {
	eng := enginemem.New()
	store := catalogmem.NewStore()
	gate := engine.NewGate(eng.Ping, 0)
	svc := NewSuggestionService(eng, gate, store, nil, testLogger())

	ctx := context.Background()
	// Many items share one brand; the brand must appear once.
	for i := 0; i < 10; i++ {
		doc := domain.IndexDocument{
			ID:     fmt.Sprintf("%d", i),
			Name:   fmt.Sprintf("Runner Model %d", i),
			Brand:  "Runfast",
			Rating: 4.0,
		}
		require.NoError(t, eng.Upsert(ctx, &doc))
	}

	got, err := svc.Suggest(ctx, "run", 4)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	seen := make(map[string]struct{})
	for _, s := range got {
		_, dup := seen[s]
		assert.False(t, dup, "duplicate suggestion %q", s)
		seen[s] = struct{}{}
	}
}

func TestSuggestFallsBackToCatalog(t *testing.T) {
	svc, eng, _ := newSuggestFixture(t, nil)
	eng.SetDown(true)

	got, err := svc.Suggest(context.Background(), "run", 5)
	require.NoError(t, err)
	// Catalog fallback matches name and brand substrings.
	assert.Contains(t, got, "Runner Pro Shoes")
	assert.Contains(t, got, "Runfast")
}

func TestSuggestServesFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	redisCache := cache.NewRedisCache(client, time.Minute, testLogger())

	svc, eng, _ := newSuggestFixture(t, redisCache)

	first, err := svc.Suggest(context.Background(), "run", 5)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// With the engine and catalog both unable to serve, only the cache can
	// answer an identical request.
	eng.SetDown(true)
	second, err := svc.Suggest(context.Background(), "run", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
