package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateCachesVerdictWithinTTL(t *testing.T) {
	probes := 0
	gate := NewGate(func(ctx context.Context) error {
		probes++
		return nil
	}, 30*time.Second)

	current := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return current }

	ctx := context.Background()
	assert.True(t, gate.Healthy(ctx))
	assert.True(t, gate.Healthy(ctx))
	assert.Equal(t, 1, probes)

	current = current.Add(31 * time.Second)
	assert.True(t, gate.Healthy(ctx))
	assert.Equal(t, 2, probes)
}

func TestGateProbesAgainAfterTTL(t *testing.T) {
	healthy := false
	gate := NewGate(func(ctx context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("connection refused")
	}, 30*time.Second)

	current := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return current }

	ctx := context.Background()
	assert.False(t, gate.Healthy(ctx))

	// Recovery is not visible until the cached verdict expires.
	healthy = true
	assert.False(t, gate.Healthy(ctx))

	current = current.Add(time.Minute)
	assert.True(t, gate.Healthy(ctx))
}

func TestMarkDownClosesGateForFullTTL(t *testing.T) {
	gate := NewGate(func(ctx context.Context) error { return nil }, 30*time.Second)

	current := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return current }

	ctx := context.Background()
	assert.True(t, gate.Healthy(ctx))

	gate.MarkDown()
	assert.False(t, gate.Healthy(ctx))

	current = current.Add(29 * time.Second)
	assert.False(t, gate.Healthy(ctx))

	current = current.Add(2 * time.Second)
	assert.True(t, gate.Healthy(ctx))
}
