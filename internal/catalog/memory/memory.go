package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/grovemarket/search-service/internal/catalog"
	"github.com/grovemarket/search-service/internal/domain"
	apperrors "github.com/grovemarket/search-service/pkg/errors"
)

// Store is an in-memory catalog.Store used in tests and local development.
// Thread-safe via sync.RWMutex.
type Store struct {
	mu    sync.RWMutex
	items map[string]domain.CatalogItem
}

// NewStore creates an empty in-memory catalog.
func NewStore() *Store {
	return &Store{items: make(map[string]domain.CatalogItem)}
}

// Put inserts or replaces an item. Test helper, not part of catalog.Store.
func (s *Store) Put(item domain.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// Remove hard-deletes an item. Test helper.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &item, nil
}

func (s *Store) FindMany(_ context.Context, f catalog.Filter, p catalog.Page, sortBy string) ([]domain.CatalogItem, error) {
	s.mu.RLock()
	matched := s.filter(f)
	s.mu.RUnlock()

	sortItems(matched, sortBy)

	size := p.Size
	if size <= 0 {
		size = 20
	}
	offset := p.Offset()
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + size
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], nil
}

func (s *Store) Count(_ context.Context, f catalog.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filter(f)), nil
}

func (s *Store) DistinctBrands(_ context.Context, f catalog.Filter) ([]string, error) {
	s.mu.RLock()
	matched := s.filter(f)
	s.mu.RUnlock()

	seen := make(map[string]struct{})
	brands := []string{}
	for _, item := range matched {
		if item.Brand == "" {
			continue
		}
		if _, ok := seen[item.Brand]; ok {
			continue
		}
		seen[item.Brand] = struct{}{}
		brands = append(brands, item.Brand)
	}
	sort.Strings(brands)

	return brands, nil
}

// filter returns live items matching f. Callers hold at least a read lock.
func (s *Store) filter(f catalog.Filter) []domain.CatalogItem {
	term := strings.ToLower(f.Term)

	matched := make([]domain.CatalogItem, 0)
	for _, item := range s.items {
		if item.Deleted {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(item.Name), term) &&
			!strings.Contains(strings.ToLower(item.Description), term) &&
			!strings.Contains(strings.ToLower(item.Brand), term) {
			continue
		}
		if f.CategoryID != nil && item.CategoryID != *f.CategoryID {
			continue
		}
		if f.Brand != nil && item.Brand != *f.Brand {
			continue
		}
		if f.MinPrice != nil && item.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && item.Price > *f.MaxPrice {
			continue
		}
		matched = append(matched, item)
	}

	return matched
}

func sortItems(items []domain.CatalogItem, sortBy string) {
	switch sortBy {
	case domain.SortNewest:
		sort.Slice(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	case domain.SortPriceAsc:
		sort.Slice(items, func(i, j int) bool {
			return items[i].Price < items[j].Price
		})
	case domain.SortPriceDesc:
		sort.Slice(items, func(i, j int) bool {
			return items[i].Price > items[j].Price
		})
	default:
		// Relevance has no meaning in the store; rating descending is the
		// closest proxy and keeps ordering deterministic.
		sort.Slice(items, func(i, j int) bool {
			if items[i].Rating != items[j].Rating {
				return items[i].Rating > items[j].Rating
			}
			return items[i].ReviewCount > items[j].ReviewCount
		})
	}
}
