package handlers

import (
	"net/http"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/api/tenantctx"
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/ingest"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/sirupsen/logrus"
)

const rebuildPageSize = 1000

// FeedRebuildHandler records a run that enqueues every stored product of the
// tenant, so the worker pushes the whole catalog again.
type FeedRebuildHandler struct {
	Store  state.Store
	Clock  func() time.Time
	Logger logrus.FieldLogger
}

func (h FeedRebuildHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusInternalServerError, "misconfigured", "handler dependencies not configured")
		return
	}

	ctx := r.Context()
	tenantID := tenantctx.TenantID(ctx)

	var results []ingest.ProductProcessResult
	var after uint64
	for {
		ids, err := h.Store.ListProductIDs(ctx, tenantID, after, rebuildPageSize)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list_products_failed", err.Error())
			return
		}
		for _, id := range ids {
			hash, _, err := h.Store.GetProductHash(ctx, tenantID, id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "state_lookup_failed", err.Error())
				return
			}
			results = append(results, ingest.ProductProcessResult{
				ProductID:   id,
				Disposition: domain.ProductDispositionEnqueued,
				Reason:      ingest.ReasonForced,
				Hash:        hash,
			})
		}
		if len(ids) < rebuildPageSize {
			break
		}
		after = ids[len(ids)-1]
	}

	runID, err := ingest.NewRunID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "run_id_failed", err.Error())
		return
	}

	n := len(results)
	status := domain.RunStatusNoChangeDetected
	if n > 0 {
		status = domain.RunStatusHasChanges
	}

	if err := h.Store.InsertRun(ctx, state.RunRecord{
		RunID:         runID,
		TenantID:      tenantID,
		Status:        status,
		PushTriggered: n > 0,
		Received:      n,
		Valid:         n,
		Enqueued:      n,
		CreatedAt:     h.now(),
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "persist_run_failed", err.Error())
		return
	}
	if err := h.Store.InsertRunProducts(ctx, runID, results); err != nil {
		writeError(w, http.StatusInternalServerError, "persist_run_products_failed", err.Error())
		return
	}

	if h.Logger != nil {
		h.Logger.WithFields(logrus.Fields{
			"run_id":    runID,
			"tenant_id": tenantID,
			"enqueued":  n,
		}).Info("catalog rebuild requested")
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":         runID,
		"status":         status,
		"push_triggered": n > 0,
		"enqueued":       n,
	})
}

func (h FeedRebuildHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}
