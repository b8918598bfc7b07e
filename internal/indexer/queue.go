package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultQueueSize   = 256
	defaultWorkers     = 4
	jobTimeout         = 10 * time.Second
	maxSyncTries       = 3
	initialSyncBackoff = 200 * time.Millisecond
)

// Queue serializes fire-and-forget sync requests through a bounded channel
// so bursts of catalog changes cannot exhaust memory. When the buffer is
// full, Enqueue drops the request; the next full reindex repairs anything
// dropped.
type Queue struct {
	syncer  *Syncer
	logger  *slog.Logger
	jobs    chan string
	workers int

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewQueue(syncer *Syncer, logger *slog.Logger) *Queue {
	return &Queue{
		syncer:  syncer,
		logger:  logger,
		jobs:    make(chan string, defaultQueueSize),
		workers: defaultWorkers,
	}
}

// Start launches the worker pool. Workers exit when the queue is closed or
// the context is canceled.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.logger.Info("sync queue started", "workers", q.workers, "capacity", cap(q.jobs))
}

// Enqueue schedules a sync without blocking the caller. Returns false when
// the queue is full and the request was dropped.
func (q *Queue) Enqueue(id string) bool {
	select {
	case q.jobs <- id:
		return true
	default:
		q.logger.Warn("sync queue full, dropping request", "id", id)
		return false
	}
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-q.jobs:
			if !ok {
				return
			}
			q.process(ctx, id)
		}
	}
}

// process retries transient failures with exponential backoff before giving
// up; an exhausted job is logged and dropped rather than requeued, so one
// persistently bad item cannot wedge the pool.
func (q *Queue) process(ctx context.Context, id string) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initialSyncBackoff

	_, err := backoff.Retry(jobCtx, func() (struct{}, error) {
		return struct{}{}, q.syncer.SyncOne(jobCtx, id)
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(maxSyncTries))

	if err != nil {
		q.logger.Error("sync failed after retries", "id", id, "error", err)
	}
}
