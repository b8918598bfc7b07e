package engine

import (
	"context"
	"errors"

	"github.com/grovemarket/search-service/internal/domain"
)

// ErrUnavailable signals that the search index cannot be reached. Callers
// treat it as an instruction to fall back to the catalog store, never as a
// fatal error for the request.
var ErrUnavailable = errors.New("search index unavailable")

// BulkBatchSize is the fixed chunk size for bulk upserts. It bounds request
// size and memory during a full reindex.
const BulkBatchSize = 100

// BulkReport summarizes a bulk upsert: how many batches were attempted, how
// many of them failed, and how many documents landed in the index. A failed
// batch does not abort the remaining ones.
type BulkReport struct {
	Batches       int
	FailedBatches int
	Indexed       int
}

// SearchEngine is the contract against the underlying search index.
// Implementations exist for Elasticsearch and for an in-memory index used in
// tests and engine-less deployments.
type SearchEngine interface {
	// Init creates the index with its field mapping if it does not exist.
	// Calling it against an existing index is a no-op.
	Init(ctx context.Context) error

	// Upsert replaces the document stored under doc.ID. Last write wins;
	// the index is a disposable cache rebuildable from the catalog, so no
	// optimistic concurrency is needed.
	Upsert(ctx context.Context, doc *domain.IndexDocument) error

	// Delete removes the document. Deleting an absent ID succeeds.
	Delete(ctx context.Context, id string) error

	// BulkUpsert writes documents in BulkBatchSize chunks. Failing batches
	// are recorded in the report and processing continues with the next
	// batch. The error is non-nil only when the engine itself is unusable.
	BulkUpsert(ctx context.Context, docs []domain.IndexDocument) (*BulkReport, error)

	// Search runs a full-text query with structured filters, sorting,
	// pagination, and brand facets.
	Search(ctx context.Context, q *domain.SearchQuery) (*domain.SearchResult, error)

	// Candidates returns up to size documents matching term against name,
	// brand, or category name, ranked by rating descending. Used by the
	// suggestion service; the bounded size guarantees bounded latency.
	Candidates(ctx context.Context, term string, size int) ([]domain.IndexDocument, error)

	// Ping reports whether the engine is reachable.
	Ping(ctx context.Context) error
}
