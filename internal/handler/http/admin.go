package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grovemarket/search-service/pkg/httputil"
	"github.com/grovemarket/search-service/pkg/logger"

	"github.com/grovemarket/search-service/internal/engine"
	"github.com/grovemarket/search-service/internal/indexer"
)

// reindexTimeout bounds a background rebuild of the whole index.
const reindexTimeout = 30 * time.Minute

// AdminHandler serves the index management endpoints. All routes behind it
// require an admin token.
type AdminHandler struct {
	syncer     *indexer.Syncer
	queue      *indexer.Queue
	engine     engine.SearchEngine
	logger     *slog.Logger
	reindexing atomic.Bool
}

func NewAdminHandler(syncer *indexer.Syncer, queue *indexer.Queue, eng engine.SearchEngine, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		syncer: syncer,
		queue:  queue,
		engine: eng,
		logger: logger,
	}
}

// Reindex handles POST /admin/reindex. The rebuild runs in the background;
// the response only acknowledges the start. A second request while one is
// running gets a 409.
func (h *AdminHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if !h.reindexing.CompareAndSwap(false, true) {
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "REINDEX_IN_PROGRESS",
				Message: "a reindex is already running",
			},
		})
		return
	}

	correlationID := logger.CorrelationIDFromContext(r.Context())
	go func() {
		defer h.reindexing.Store(false)

		// Detached from the request so a closed connection does not
		// abort the rebuild.
		ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
		defer cancel()
		ctx = logger.WithCorrelationID(ctx, correlationID)

		if _, err := h.syncer.ReindexAll(ctx); err != nil {
			h.logger.Error("reindex failed", "error", err, "correlation_id", correlationID)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{
		Data: map[string]string{"status": "reindex started"},
	})
}

// SyncItem handles POST /admin/sync/{id}, scheduling one item for sync.
func (h *AdminHandler) SyncItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httputil.WriteValidationError(w, &fieldError{field: "id", msg: "must not be empty"})
		return
	}

	if !h.queue.Enqueue(id) {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "QUEUE_FULL",
				Message: "sync queue is full, retry later",
			},
		})
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{
		Data: map[string]string{"status": "sync scheduled", "id": id},
	})
}

// DeleteDocument handles DELETE /admin/index/{id}. Removing an id that was
// never indexed succeeds.
func (h *AdminHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httputil.WriteValidationError(w, &fieldError{field: "id", msg: "must not be empty"})
		return
	}

	if err := h.engine.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
