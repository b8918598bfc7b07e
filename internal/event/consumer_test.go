package event

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovemarket/search-service/pkg/kafka"
)

type fakeScheduler struct {
	ids  []string
	full bool
}

func (f *fakeScheduler) Enqueue(id string) bool {
	if f.full {
		return false
	}
	f.ids = append(f.ids, id)
	return true
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestHandleProductEventSchedulesSync(t *testing.T) {
	scheduler := &fakeScheduler{}
	handler := handleProductEvent(scheduler, testLogger())

	event, err := kafka.NewEvent("product.updated", "item-42", "product", "catalog-service", map[string]string{"name": "stale payload"})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, []string{"item-42"}, scheduler.ids)
}

func TestHandleProductEventRejectsMissingAggregateID(t *testing.T) {
	scheduler := &fakeScheduler{}
	handler := handleProductEvent(scheduler, testLogger())

	event, err := kafka.NewEvent("product.created", "", "product", "catalog-service", nil)
	require.NoError(t, err)

	assert.Error(t, handler(context.Background(), event))
	assert.Empty(t, scheduler.ids)
}

func TestHandleProductEventFailsWhenQueueFull(t *testing.T) {
	scheduler := &fakeScheduler{full: true}
	handler := handleProductEvent(scheduler, testLogger())

	event, err := kafka.NewEvent("product.deleted", "item-7", "product", "catalog-service", nil)
	require.NoError(t, err)

	// The error propagates so the consumer retries and eventually
	// dead-letters instead of losing the sync.
	assert.Error(t, handler(context.Background(), event))
}
