// Package event subscribes to catalog change topics and schedules index
// syncs. Event payloads carry the changed item's state at publish time, but
// the sync path always refetches the row, so payloads here are only used to
// learn which item changed.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grovemarket/search-service/pkg/kafka"
)

// Product lifecycle topics this service consumes.
var (
	TopicProductCreated = kafka.Topic("product", "created")
	TopicProductUpdated = kafka.Topic("product", "updated")
	TopicProductDeleted = kafka.Topic("product", "deleted")
)

const consumerGroup = "search-service"

// idempotencyTTL covers the broker's redelivery window.
const idempotencyTTL = 10 * time.Minute

// SyncScheduler accepts a sync request for one item. Matches indexer.Queue.
type SyncScheduler interface {
	Enqueue(id string) bool
}

// Subscriber owns one consumer per product topic.
type Subscriber struct {
	consumers []*kafka.Consumer
	logger    *slog.Logger
}

// NewSubscriber builds consumers for all product topics, sharing one
// idempotency store so a redelivered event is only scheduled once.
func NewSubscriber(brokers []string, scheduler SyncScheduler, dlq *kafka.DLQProducer, logger *slog.Logger) *Subscriber {
	idem := kafka.NewMemoryIdempotencyStore(idempotencyTTL)
	handler := kafka.IdempotentHandler(idem, handleProductEvent(scheduler, logger), logger)

	topics := []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
	consumers := make([]*kafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		consumers = append(consumers, kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: brokers,
			GroupID: consumerGroup,
			Topic:   topic,
		}, handler, dlq, logger))
	}

	return &Subscriber{consumers: consumers, logger: logger}
}

// Start launches one goroutine per consumer. They run until ctx is canceled.
func (s *Subscriber) Start(ctx context.Context) {
	for _, c := range s.consumers {
		consumer := c
		go func() {
			if err := consumer.Start(ctx); err != nil {
				s.logger.Error("consumer stopped with error", "error", err)
			}
		}()
	}
}

// Close shuts down all consumers.
func (s *Subscriber) Close() {
	for _, c := range s.consumers {
		if err := c.Close(); err != nil {
			s.logger.Error("consumer close failed", "error", err)
		}
	}
}

// handleProductEvent extracts the item id and schedules a sync. Created,
// updated, and deleted all take the same path: SyncOne refetches the row and
// decides between upsert and delete from the catalog's current state.
func handleProductEvent(scheduler SyncScheduler, logger *slog.Logger) kafka.Handler {
	return func(ctx context.Context, event *kafka.Event) error {
		if event.AggregateID == "" {
			return fmt.Errorf("product event %s has no aggregate id", event.EventID)
		}

		if !scheduler.Enqueue(event.AggregateID) {
			// Backpressure; retrying lets the queue drain.
			return fmt.Errorf("sync queue full for item %s", event.AggregateID)
		}

		logger.Debug("sync scheduled",
			"event_type", event.EventType,
			"id", event.AggregateID,
		)
		return nil
	}
}
