// Package cache fronts the suggestion path with a short-lived Redis cache.
// Typeahead traffic repeats the same prefixes heavily, so even a small TTL
// absorbs most of the load.
package cache

import "context"

// SuggestionCache stores computed suggestion lists keyed by term and limit.
// Implementations must treat misses and backend failures identically: the
// caller recomputes either way.
type SuggestionCache interface {
	Get(ctx context.Context, term string, limit int) ([]string, bool)
	Set(ctx context.Context, term string, limit int, suggestions []string)
}

// Noop satisfies SuggestionCache when no Redis is configured.
type Noop struct{}

func (Noop) Get(context.Context, string, int) ([]string, bool) { return nil, false }

func (Noop) Set(context.Context, string, int, []string) {}
