package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/grovemarket/search-service/internal/cache"
	"github.com/grovemarket/search-service/internal/catalog"
	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/engine"
)

const (
	defaultSuggestLimit = 8
	maxSuggestLimit     = 20
)

// SuggestionService builds typeahead suggestions from a bounded candidate
// set. Candidates come from the engine when healthy and from the catalog
// store otherwise; results are cached briefly in Redis.
type SuggestionService struct {
	engine engine.SearchEngine
	gate   *engine.Gate
	store  catalog.Store
	cache  cache.SuggestionCache
	logger *slog.Logger
}

func NewSuggestionService(eng engine.SearchEngine, gate *engine.Gate, store catalog.Store, c cache.SuggestionCache, logger *slog.Logger) *SuggestionService {
	if c == nil {
		c = cache.Noop{}
	}
	return &SuggestionService{
		engine: eng,
		gate:   gate,
		store:  store,
		cache:  c,
		logger: logger,
	}
}

// Suggest returns up to limit distinct strings matching term, ordered by
// priority tier: item names first, then brands, then category names. The
// candidate fetch is capped at limit*2 items ranked by rating, so latency
// stays bounded regardless of catalog size.
func (s *SuggestionService) Suggest(ctx context.Context, term string, limit int) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	if cached, ok := s.cache.Get(ctx, term, limit); ok {
		return cached, nil
	}

	candidates, err := s.fetchCandidates(ctx, term, limit*2)
	if err != nil {
		return nil, err
	}

	suggestions := assemble(candidates, term, limit)
	s.cache.Set(ctx, term, limit, suggestions)
	return suggestions, nil
}

func (s *SuggestionService) fetchCandidates(ctx context.Context, term string, size int) ([]domain.IndexDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, engineTimeout)
	defer cancel()

	if s.gate.Healthy(ctx) {
		docs, err := s.engine.Candidates(ctx, term, size)
		if err == nil {
			return docs, nil
		}
		if errors.Is(err, engine.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			s.gate.MarkDown()
		}
		s.logger.Warn("primary candidate fetch failed, using fallback", "term", term, "error", err)
	}

	items, err := s.store.FindMany(ctx, catalog.Filter{Term: term}, catalog.Page{Number: 1, Size: size}, domain.SortRatingDesc)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.IndexDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, domain.IndexDocument{
			Name:         item.Name,
			Brand:        item.Brand,
			CategoryName: item.CategoryName,
		})
	}
	return docs, nil
}

// assemble walks the tiers in priority order, deduplicating as it goes.
func assemble(candidates []domain.IndexDocument, term string, limit int) []string {
	lowered := strings.ToLower(term)
	suggestions := make([]string, 0, limit)
	seen := make(map[string]struct{})

	add := func(value string) bool {
		if value == "" || !strings.Contains(strings.ToLower(value), lowered) {
			return len(suggestions) < limit
		}
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			return len(suggestions) < limit
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, value)
		return len(suggestions) < limit
	}

	for _, c := range candidates {
		if !add(c.Name) {
			return suggestions
		}
	}
	for _, c := range candidates {
		if !add(c.Brand) {
			return suggestions
		}
	}
	for _, c := range candidates {
		if !add(c.CategoryName) {
			return suggestions
		}
	}
	return suggestions
}
