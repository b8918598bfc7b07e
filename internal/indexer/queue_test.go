package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmem "github.com/grovemarket/search-service/internal/catalog/memory"
	"github.com/grovemarket/search-service/internal/domain"
)

func TestQueueProcessesEnqueuedSyncs(t *testing.T) {
	store := catalogmem.NewStore()
	store.Put(domain.CatalogItem{ID: "item-1", Name: "Chair"})
	store.Put(domain.CatalogItem{ID: "item-2", Name: "Table"})
	eng := newRecordingEngine()
	queue := NewQueue(NewSyncer(store, eng, testLogger()), testLogger())

	queue.Start(context.Background())
	assert.True(t, queue.Enqueue("item-1"))
	assert.True(t, queue.Enqueue("item-2"))
	queue.Close()

	eng.mu.Lock()
	defer eng.mu.Unlock()
	assert.Contains(t, eng.docs, "item-1")
	assert.Contains(t, eng.docs, "item-2")
}

func TestQueueDropsWhenFull(t *testing.T) {
	store := catalogmem.NewStore()
	eng := newRecordingEngine()
	queue := NewQueue(NewSyncer(store, eng, testLogger()), testLogger())
	// Workers never started, so the buffer fills and stays full.
	queue.jobs = make(chan string, 1)

	assert.True(t, queue.Enqueue("item-1"))
	assert.False(t, queue.Enqueue("item-2"))
}

func TestQueueRetriesTransientFailures(t *testing.T) {
	store := catalogmem.NewStore()
	store.Put(domain.CatalogItem{ID: "item-1", Name: "Desk"})
	eng := newRecordingEngine()
	eng.upsertErr = errors.New("connection reset")
	queue := NewQueue(NewSyncer(store, eng, testLogger()), testLogger())

	queue.Start(context.Background())
	require.True(t, queue.Enqueue("item-1"))

	// Clear the injected failure before retries are exhausted.
	time.Sleep(50 * time.Millisecond)
	eng.mu.Lock()
	eng.upsertErr = nil
	eng.mu.Unlock()

	queue.Close()

	eng.mu.Lock()
	defer eng.mu.Unlock()
	assert.Contains(t, eng.docs, "item-1")
}
