package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/grovemarket/search-service/pkg/errors"

	"github.com/grovemarket/search-service/internal/catalog"
	"github.com/grovemarket/search-service/internal/domain"
	"github.com/grovemarket/search-service/internal/engine"
)

// fetchPageSize is how many catalog rows a reindex pulls per query. Each
// fetched page is handed to BulkUpsert, which chunks it further into
// engine.BulkBatchSize writes.
const fetchPageSize = 500

// Report summarizes a full reindex run.
type Report struct {
	Scanned       int           `json:"scanned"`
	Indexed       int           `json:"indexed"`
	Skipped       int           `json:"skipped"`
	Batches       int           `json:"batches"`
	FailedBatches int           `json:"failed_batches"`
	Duration      time.Duration `json:"-"`
}

// Syncer moves catalog state into the search index.
type Syncer struct {
	store  catalog.Store
	engine engine.SearchEngine
	logger *slog.Logger
}

func NewSyncer(store catalog.Store, eng engine.SearchEngine, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:  store,
		engine: eng,
		logger: logger,
	}
}

// ReindexAll rebuilds the index from the catalog. Rows that fail to map are
// logged and skipped, and a failed write batch does not abort the run, so the
// largest possible share of the catalog gets indexed. Upserts by id make the
// run idempotent.
func (s *Syncer) ReindexAll(ctx context.Context) (*Report, error) {
	started := time.Now()

	if err := s.engine.Init(ctx); err != nil {
		return nil, fmt.Errorf("reindex: init index: %w", err)
	}

	report := &Report{}
	for pageNum := 1; ; pageNum++ {
		items, err := s.store.FindMany(ctx, catalog.Filter{}, catalog.Page{Number: pageNum, Size: fetchPageSize}, domain.SortNewest)
		if err != nil {
			return report, fmt.Errorf("reindex: fetch page %d: %w", pageNum, err)
		}
		if len(items) == 0 {
			break
		}
		report.Scanned += len(items)

		docs := make([]domain.IndexDocument, 0, len(items))
		for i := range items {
			doc, err := MapItem(&items[i])
			if err != nil {
				report.Skipped++
				s.logger.Warn("skipping unmappable item", "id", items[i].ID, "error", err)
				continue
			}
			if doc == nil {
				report.Skipped++
				continue
			}
			docs = append(docs, *doc)
		}

		bulk, err := s.engine.BulkUpsert(ctx, docs)
		if err != nil {
			return report, fmt.Errorf("reindex: bulk upsert page %d: %w", pageNum, err)
		}
		report.Batches += bulk.Batches
		report.FailedBatches += bulk.FailedBatches
		report.Indexed += bulk.Indexed

		s.logger.Info("reindex progress",
			"page", pageNum,
			"scanned", report.Scanned,
			"indexed", report.Indexed,
			"failed_batches", report.FailedBatches,
		)

		if len(items) < fetchPageSize {
			break
		}
	}

	report.Duration = time.Since(started)
	s.logger.Info("reindex complete",
		"scanned", report.Scanned,
		"indexed", report.Indexed,
		"skipped", report.Skipped,
		"batches", report.Batches,
		"failed_batches", report.FailedBatches,
		"duration", report.Duration.String(),
	)
	return report, nil
}

// SyncOne brings the index entry for one item up to date. The item is always
// fetched fresh from the catalog; event payloads are treated as stale hints.
// A missing or soft-deleted item becomes an index delete, and deleting an
// id that was never indexed succeeds.
func (s *Syncer) SyncOne(ctx context.Context, id string) error {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.deleteEntry(ctx, id)
		}
		return fmt.Errorf("sync item %s: fetch: %w", id, err)
	}

	doc, err := MapItem(item)
	if err != nil {
		return fmt.Errorf("sync item %s: %w", id, err)
	}
	if doc == nil {
		return s.deleteEntry(ctx, id)
	}

	if err := s.engine.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("sync item %s: upsert: %w", id, err)
	}
	s.logger.Debug("item synced", "id", id)
	return nil
}

func (s *Syncer) deleteEntry(ctx context.Context, id string) error {
	if err := s.engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("sync item %s: delete: %w", id, err)
	}
	s.logger.Debug("index entry removed", "id", id)
	return nil
}
