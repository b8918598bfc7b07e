package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovemarket/search-service/pkg/health"
	"github.com/grovemarket/search-service/pkg/middleware"

	catalogmem "github.com/grovemarket/search-service/internal/catalog/memory"
	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/engine"
	enginemem "github.com/grovemarket/search-service/internal/engine/memory"
	"github.com/grovemarket/search-service/internal/indexer"
	"github.com/grovemarket/search-service/internal/service"
)

type fixture struct {
	router http.Handler
	engine *enginemem.Engine
	store  *catalogmem.Store
	queue  *indexer.Queue
}

func fakeValidator(token string) (*middleware.Claims, error) {
	switch token {
	case "admin-token":
		return &middleware.Claims{UserID: "admin-1", Role: "admin"}, nil
	case "user-token":
		return &middleware.Claims{UserID: "user-1", Role: "customer"}, nil
	default:
		return nil, errors.New("bad token")
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	eng := enginemem.New()
	store := catalogmem.NewStore()
	gate := engine.NewGate(eng.Ping, 0)

	syncer := indexer.NewSyncer(store, eng, logger)
	queue := indexer.NewQueue(syncer, logger)
	queue.Start(context.Background())
	t.Cleanup(queue.Close)

	query := service.NewQueryService(eng, gate, store, logger)
	suggest := service.NewSuggestionService(eng, gate, store, nil, logger)

	search := NewSearchHandler(query, suggest, logger)
	admin := NewAdminHandler(syncer, queue, eng, logger)

	router := NewRouter(search, admin, health.NewHandler(), fakeValidator, "search-service", logger)

	f := &fixture{router: router, engine: eng, store: store, queue: queue}
	f.seed(t)
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	items := []domain.CatalogItem{
		{ID: "1", Name: "Trail Running Shoes", Brand: "Apex", CategoryID: "cat-shoes", CategoryName: "Shoes", Price: 119.99, Rating: 4.7, ReviewCount: 210},
		{ID: "2", Name: "Road Running Shoes", Brand: "Strider", CategoryID: "cat-shoes", CategoryName: "Shoes", Price: 89.50, Rating: 4.2, ReviewCount: 95},
	}
	for i := range items {
		f.store.Put(items[i])
		doc, err := indexer.MapItem(&items[i])
		require.NoError(t, err)
		require.NoError(t, f.engine.Upsert(context.Background(), doc))
	}
}

func (f *fixture) do(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeSearch(t *testing.T, rec *httptest.ResponseRecorder) searchResponse {
	t.Helper()
	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSearchEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/search?q=running", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeSearch(t, rec)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Products, 2)
	assert.Equal(t, 1, resp.TotalPages)
	assert.ElementsMatch(t, []string{"Apex", "Strider"}, resp.Filters.Brands)
}

func TestSearchEndpointEmptyTerm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/search", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeSearch(t, rec)
	assert.Zero(t, resp.Total)
	assert.NotNil(t, resp.Products)
	assert.Empty(t, resp.Products)
}

func TestSearchEndpointFiltersAndSort(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/search?q=running&brand=Apex&minPrice=100&maxPrice=200&sort=price_asc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeSearch(t, rec)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "1", resp.Products[0].ID)
}

func TestSearchEndpointRejectsMalformedPrice(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{
		"/search?q=running&minPrice=cheap",
		"/search?q=running&maxPrice=12,50",
		"/search?q=running&minPrice=-5",
	} {
		rec := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSearchEndpointInvertedPriceRange(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/search?q=running&minPrice=200&maxPrice=100", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeSearch(t, rec).Total)
}

func TestSearchEndpointShapeUnchangedInFallback(t *testing.T) {
	f := newFixture(t)
	f.engine.SetDown(true)

	rec := f.do(t, http.MethodGet, "/search?q=running", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"products", "total", "page", "limit", "totalPages", "filters"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, 2, decodeSearch(t, rec).Total)
}

func TestSuggestionsEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/search/suggestions?q=run&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp suggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Suggestions)
	assert.LessOrEqual(t, len(resp.Suggestions), 5)
}

func TestSuggestionsEndpointEmptyTerm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/search/suggestions?q=", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp suggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Suggestions)
}

func TestSuggestionsEndpointRejectsMalformedLimit(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/search/suggestions?q=run&limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/reindex", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/reindex", "user-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/reindex", "invalid")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminReindex(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/reindex", "admin-token")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestAdminSyncItem(t *testing.T) {
	f := newFixture(t)
	f.store.Put(domain.CatalogItem{ID: "3", Name: "Running Cap", Brand: "Apex"})

	rec := f.do(t, http.MethodPost, "/admin/sync/3", "admin-token")
	require.Equal(t, http.StatusAccepted, rec.Code)

	// The queue is asynchronous; wait for the worker to index the item.
	require.Eventually(t, func() bool {
		docs, err := f.engine.Candidates(context.Background(), "cap", 5)
		return err == nil && len(docs) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAdminDeleteDocument(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/admin/index/1", "admin-token")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/search?q=running", "")
	assert.Equal(t, 1, decodeSearch(t, rec).Total)

	// Deleting an id that was never indexed still succeeds.
	rec = f.do(t, http.MethodDelete, "/admin/index/never-indexed", "admin-token")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
