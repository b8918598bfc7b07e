// Package service holds the read-path business logic: query execution with
// graceful fallback, and typeahead suggestion assembly.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/grovemarket/search-service/pkg/pagination"

	"github.com/grovemarket/search-service/internal/catalog"
	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/engine"
	"github.com/grovemarket/search-service/internal/indexer"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100

	// engineTimeout bounds every primary-path call. A timeout is treated
	// the same as an unavailable engine and triggers fallback.
	engineTimeout = 3 * time.Second
)

// QueryService executes search requests against the engine, degrading to
// substring queries against the catalog store when the engine is down. Both
// paths produce the same result shape.
type QueryService struct {
	engine engine.SearchEngine
	gate   *engine.Gate
	store  catalog.Store
	logger *slog.Logger
}

func NewQueryService(eng engine.SearchEngine, gate *engine.Gate, store catalog.Store, logger *slog.Logger) *QueryService {
	return &QueryService{
		engine: eng,
		gate:   gate,
		store:  store,
		logger: logger,
	}
}

// Search runs one query. An empty term short-circuits to an empty result, as
// does an inverted price range; neither is an error. Unknown sort keys
// degrade to relevance.
func (s *QueryService) Search(ctx context.Context, q *domain.SearchQuery) (*domain.SearchResult, error) {
	q.Term = strings.TrimSpace(q.Term)
	q.SortBy = domain.NormalizeSort(q.SortBy)
	clampPagination(q)

	if q.Term == "" {
		return domain.EmptyResult(q.Page, q.PerPage), nil
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return domain.EmptyResult(q.Page, q.PerPage), nil
	}

	if s.gate.Healthy(ctx) {
		result, err := s.searchPrimary(ctx, q)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, engine.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			s.gate.MarkDown()
		}
		s.logger.Warn("primary search failed, using fallback", "term", q.Term, "error", err)
	}

	return s.searchFallback(ctx, q)
}

func (s *QueryService) searchPrimary(ctx context.Context, q *domain.SearchQuery) (*domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, engineTimeout)
	defer cancel()

	result, err := s.engine.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if result.Products == nil {
		result.Products = []domain.IndexDocument{}
	}
	if result.Facets.Brands == nil {
		result.Facets.Brands = []string{}
	}
	result.TotalPages = pagination.TotalPages(result.Total, q.PerPage)
	return result, nil
}

// searchFallback queries the catalog store directly. Matching degrades from
// full-text to case-insensitive substring, and the brand facet comes from a
// distinct-value query, marked approximate.
func (s *QueryService) searchFallback(ctx context.Context, q *domain.SearchQuery) (*domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, engineTimeout)
	defer cancel()

	f := catalog.Filter{
		Term:       q.Term,
		CategoryID: q.CategoryID,
		Brand:      q.Brand,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
	}

	items, err := s.store.FindMany(ctx, f, catalog.Page{Number: q.Page, Size: q.PerPage}, q.SortBy)
	if err != nil {
		return nil, fmt.Errorf("fallback search: %w", err)
	}

	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fallback count: %w", err)
	}

	brands, err := s.store.DistinctBrands(ctx, f)
	if err != nil {
		s.logger.Warn("fallback facet query failed", "error", err)
		brands = []string{}
	}
	if brands == nil {
		brands = []string{}
	}

	products := make([]domain.IndexDocument, 0, len(items))
	for i := range items {
		doc, err := indexer.MapItem(&items[i])
		if err != nil || doc == nil {
			continue
		}
		products = append(products, *doc)
	}

	return &domain.SearchResult{
		Products:   products,
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: pagination.TotalPages(total, q.PerPage),
		Facets:     domain.Facets{Brands: brands, Approximate: true},
	}, nil
}

func clampPagination(q *domain.SearchQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
}
