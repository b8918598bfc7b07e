package engine

import (
	"context"
	"sync"
	"time"
)

// HealthSource probes the engine, typically SearchEngine.Ping. Tests can
// substitute fakes to force either path deterministically.
type HealthSource func(ctx context.Context) error

// Gate caches the engine's health for a bounded TTL so that the query path
// does not pay a probe per request, and so that a failed search marks the
// engine down immediately instead of waiting for the next probe.
type Gate struct {
	source HealthSource
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	healthy   bool
}

// NewGate creates a gate over the given source with the given cache TTL.
func NewGate(source HealthSource, ttl time.Duration) *Gate {
	return &Gate{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Healthy reports whether the engine should be tried. The cached verdict is
// reused within the TTL; outside it the source is probed again.
func (g *Gate) Healthy(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.checkedAt.IsZero() && g.now().Sub(g.checkedAt) < g.ttl {
		return g.healthy
	}

	g.healthy = g.source(ctx) == nil
	g.checkedAt = g.now()
	return g.healthy
}

// MarkDown records a failure observed by a caller, keeping the gate closed
// for a full TTL before the engine is probed again.
func (g *Gate) MarkDown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.healthy = false
	g.checkedAt = g.now()
}
