package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/api/tenantctx"
	"github.com/ETAnderson/catalogfeed/internal/state"
)

// RunsHandler serves GET /v1/runs.
type RunsHandler struct {
	Store state.Store
}

func (h RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	runs, err := h.Store.ListRuns(r.Context(), tenantctx.TenantID(r.Context()), queryLimit(r, 50, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_runs_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": runs})
}

// RunDetailHandler serves GET /v1/runs/{run_id}.
type RunDetailHandler struct {
	Store state.Store
}

func (h RunDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	run, ok := loadRun(w, r, h.Store)
	if !ok {
		return
	}

	products, err := h.Store.ListRunProducts(r.Context(), run.RunID, queryLimit(r, 500, 2000))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_run_products_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":      run,
		"done":     run.Status.Terminal(),
		"products": products,
	})
}

// RunChannelsHandler serves GET /v1/runs/{run_id}/channels.
type RunChannelsHandler struct {
	Store state.Store
}

func (h RunChannelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	run, ok := loadRun(w, r, h.Store)
	if !ok {
		return
	}

	items, err := h.Store.ListRunChannelResults(r.Context(), run.TenantID, run.RunID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// RunChannelItemsHandler serves GET /v1/runs/{run_id}/channels/{channel}.
type RunChannelItemsHandler struct {
	Store state.Store
}

type channelItemView struct {
	state.RunChannelItemRecord
	Item json.RawMessage `json:"item,omitempty"`
}

func (h RunChannelItemsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	run, ok := loadRun(w, r, h.Store)
	if !ok {
		return
	}
	channel := strings.TrimSpace(r.PathValue("channel"))

	items, err := h.Store.ListRunChannelItems(r.Context(), run.TenantID, run.RunID, channel, queryLimit(r, 1000, 10000))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	views := make([]channelItemView, 0, len(items))
	for _, it := range items {
		v := channelItemView{RunChannelItemRecord: it}
		if len(it.ItemJSON) > 0 {
			v.Item = json.RawMessage(it.ItemJSON)
		}
		views = append(views, v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  run.RunID,
		"channel": channel,
		"items":   views,
	})
}

// loadRun resolves {run_id} for the request tenant and writes the error
// response itself when it returns false.
func loadRun(w http.ResponseWriter, r *http.Request, st state.Store) (state.RunRecord, bool) {
	if st == nil {
		writeError(w, http.StatusInternalServerError, "misconfigured", "handler dependencies not configured")
		return state.RunRecord{}, false
	}

	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		writeError(w, http.StatusBadRequest, "invalid_run_id", "run_id missing or invalid")
		return state.RunRecord{}, false
	}

	run, ok, err := st.GetRun(r.Context(), tenantctx.TenantID(r.Context()), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_run_failed", err.Error())
		return state.RunRecord{}, false
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "run not found")
		return state.RunRecord{}, false
	}
	return run, true
}
