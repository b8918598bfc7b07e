package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/engine"
)

// Engine is an in-memory SearchEngine for local development and tests.
// Matching is case-insensitive substring search, not full-text scoring.
type Engine struct {
	mu   sync.RWMutex
	docs map[string]domain.IndexDocument
	down bool
}

func New() *Engine {
	return &Engine{docs: make(map[string]domain.IndexDocument)}
}

// SetDown makes every operation return engine.ErrUnavailable until reset.
// Lets tests drive the fallback path without a real cluster outage.
func (e *Engine) SetDown(down bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.down = down
}

func (e *Engine) unavailable() bool {
	return e.down
}

func (e *Engine) Ping(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.unavailable() {
		return engine.ErrUnavailable
	}
	return nil
}

func (e *Engine) Init(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.unavailable() {
		return engine.ErrUnavailable
	}
	return nil
}

func (e *Engine) Upsert(ctx context.Context, doc *domain.IndexDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unavailable() {
		return engine.ErrUnavailable
	}
	e.docs[doc.ID] = *doc
	return nil
}

// Delete removes a document; deleting an absent id succeeds.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unavailable() {
		return engine.ErrUnavailable
	}
	delete(e.docs, id)
	return nil
}

func (e *Engine) BulkUpsert(ctx context.Context, docs []domain.IndexDocument) (*engine.BulkReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unavailable() {
		return nil, engine.ErrUnavailable
	}

	report := &engine.BulkReport{}
	for start := 0; start < len(docs); start += engine.BulkBatchSize {
		end := start + engine.BulkBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		for _, doc := range docs[start:end] {
			e.docs[doc.ID] = doc
		}
		report.Batches++
		report.Indexed += end - start
	}
	return report, nil
}

func (e *Engine) Search(ctx context.Context, q *domain.SearchQuery) (*domain.SearchResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.unavailable() {
		return nil, engine.ErrUnavailable
	}

	term := strings.ToLower(q.Term)
	var matched []domain.IndexDocument
	brandSet := make(map[string]struct{})

	for _, doc := range e.docs {
		if !matchesTerm(&doc, term) || !matchesFilters(&doc, q) {
			continue
		}
		matched = append(matched, doc)
		if doc.Brand != "" {
			brandSet[doc.Brand] = struct{}{}
		}
	}

	sortDocs(matched, q.SortBy)

	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start > total {
		start = total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}

	brands := make([]string, 0, len(brandSet))
	for brand := range brandSet {
		brands = append(brands, brand)
	}
	sort.Strings(brands)

	page := matched[start:end]
	if page == nil {
		page = []domain.IndexDocument{}
	}

	return &domain.SearchResult{
		Products: page,
		Total:    total,
		Page:     q.Page,
		PerPage:  q.PerPage,
		Facets:   domain.Facets{Brands: brands},
	}, nil
}

func (e *Engine) Candidates(ctx context.Context, term string, size int) ([]domain.IndexDocument, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.unavailable() {
		return nil, engine.ErrUnavailable
	}

	lowered := strings.ToLower(term)
	var matched []domain.IndexDocument
	for _, doc := range e.docs {
		if strings.Contains(strings.ToLower(doc.Name), lowered) ||
			strings.Contains(strings.ToLower(doc.Brand), lowered) ||
			strings.Contains(strings.ToLower(doc.CategoryName), lowered) {
			matched = append(matched, doc)
		}
	}

	sortDocs(matched, domain.SortRatingDesc)
	if len(matched) > size {
		matched = matched[:size]
	}
	return matched, nil
}

func matchesTerm(doc *domain.IndexDocument, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(doc.Name), term) ||
		strings.Contains(strings.ToLower(doc.Description), term) ||
		strings.Contains(strings.ToLower(doc.Brand), term)
}

func matchesFilters(doc *domain.IndexDocument, q *domain.SearchQuery) bool {
	if q.CategoryID != nil && doc.CategoryID != *q.CategoryID {
		return false
	}
	// Brand filtering is exact, matching the keyword-term semantics of
	// the other engines.
	if q.Brand != nil && doc.Brand != *q.Brand {
		return false
	}
	if q.MinPrice != nil && doc.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && doc.Price > *q.MaxPrice {
		return false
	}
	return true
}

func sortDocs(docs []domain.IndexDocument, sortBy string) {
	switch sortBy {
	case domain.SortPriceAsc:
		sort.Slice(docs, func(i, j int) bool { return docs[i].Price < docs[j].Price })
	case domain.SortPriceDesc:
		sort.Slice(docs, func(i, j int) bool { return docs[i].Price > docs[j].Price })
	case domain.SortNewest:
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	default:
		// Relevance is approximated by rating; review count breaks ties.
		sort.Slice(docs, func(i, j int) bool {
			if docs[i].Rating != docs[j].Rating {
				return docs[i].Rating > docs[j].Rating
			}
			return docs[i].ReviewCount > docs[j].ReviewCount
		})
	}
}
