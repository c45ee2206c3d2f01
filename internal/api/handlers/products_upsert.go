package handlers

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/api/tenantctx"
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/ingest"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/sirupsen/logrus"
)

const ndjsonContentType = "application/x-ndjson"

// ProductsUpsertHandler accepts product snapshots, stores the valid ones and
// records a run. A run with changes is picked up by the worker.
//
// The body is either a JSON array or, with Content-Type application/x-ndjson,
// one product object per line (optionally gzip encoded). ?force=true
// enqueues valid products even when their content is unchanged.
type ProductsUpsertHandler struct {
	Processor ingest.Processor
	Store     state.Store

	EnabledChannels []string

	Clock  func() time.Time
	Logger logrus.FieldLogger
}

type RunResponse struct {
	RunID         string                   `json:"run_id"`
	Status        domain.RunStatus         `json:"status"`
	PushTriggered bool                     `json:"push_triggered"`
	Warnings      ingest.UnknownKeyWarning `json:"warnings,omitempty"`
	Result        ingest.ProcessOutput     `json:"result"`
}

func (h ProductsUpsertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Store == nil {
		writeError(w, http.StatusInternalServerError, "misconfigured", "handler dependencies not configured")
		return
	}

	ctx := r.Context()
	tenantID := tenantctx.TenantID(ctx)

	runID, err := ingest.NewRunID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "run_id_failed", err.Error())
		return
	}

	reader, err := wrapMaybeGzip(r.Body, r.Header.Get("Content-Encoding"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_encoding", err.Error())
		return
	}
	defer reader.Close()

	var parsed ingest.ParseResult
	if isNDJSON(r.Header.Get("Content-Type")) {
		parsed, err = ingest.ParseNDJSON(reader)
	} else {
		var body []byte
		if body, err = io.ReadAll(reader); err == nil {
			parsed, err = ingest.ParseProductsAllowUnknown(body)
		}
	}
	switch {
	case errors.Is(err, ingest.ErrTooManyProducts):
		writeError(w, http.StatusRequestEntityTooLarge, "too_many_products", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	products, warnings, badLines := parsed.Products, parsed.Warnings, parsed.Rejected

	lookup := func(productID uint64) (string, bool, error) {
		return h.Store.GetProductHash(ctx, tenantID, productID)
	}

	proc := h.Processor
	if force, _ := strconv.ParseBool(r.URL.Query().Get("force")); force {
		proc.Force = true
	}

	out, err := proc.ProcessProducts(products, h.EnabledChannels, lookup)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "processing_failed", err.Error())
		return
	}
	out.Summary.Received += len(badLines)
	out.Summary.Rejected += len(badLines)
	out.Products = append(out.Products, badLines...)

	// Persist canonical state for changed products; unchanged ones already match.
	for i, pr := range out.Products[:len(products)] {
		if pr.Disposition != domain.ProductDispositionEnqueued {
			continue
		}
		if err := state.PutProduct(ctx, h.Store, tenantID, products[i], pr.Hash); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":      "persist_product_failed",
				"message":    err.Error(),
				"product_id": pr.ProductID,
			})
			return
		}
	}

	enqueued := out.Summary.Enqueued + out.Summary.Refreshed
	pushTriggered := enqueued > 0

	status := domain.RunStatusCompleted
	if !pushTriggered && out.Summary.Rejected == 0 {
		status = domain.RunStatusNoChangeDetected
	} else if pushTriggered {
		status = domain.RunStatusHasChanges
	}

	if err := h.Store.InsertRun(ctx, state.RunRecord{
		RunID:         runID,
		TenantID:      tenantID,
		Status:        status,
		PushTriggered: pushTriggered,
		Received:      out.Summary.Received,
		Valid:         out.Summary.Valid,
		Rejected:      out.Summary.Rejected,
		Unchanged:     out.Summary.Unchanged,
		Enqueued:      enqueued,
		Warnings:      warnings,
		CreatedAt:     h.now(),
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "persist_run_failed",
			"message": err.Error(),
			"run_id":  runID,
		})
		return
	}

	runProducts := append(append([]ingest.ProductProcessResult(nil), out.Products...), out.Refreshed...)
	if err := h.Store.InsertRunProducts(ctx, runID, runProducts); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "persist_run_products_failed",
			"message": err.Error(),
			"run_id":  runID,
		})
		return
	}

	if h.Logger != nil {
		h.Logger.WithFields(logrus.Fields{
			"run_id":    runID,
			"tenant_id": tenantID,
			"status":    status,
			"enqueued":  enqueued,
			"rejected":  out.Summary.Rejected,
		}).Info("products upserted")
	}

	writeJSON(w, http.StatusOK, RunResponse{
		RunID:         runID,
		Status:        status,
		PushTriggered: pushTriggered,
		Warnings:      warnings,
		Result:        out,
	})
}

func (h ProductsUpsertHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func isNDJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == ndjsonContentType
}

func wrapMaybeGzip(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	enc := strings.ToLower(strings.TrimSpace(contentEncoding))
	if enc == "" || enc == "identity" {
		return body, nil
	}

	if enc != "gzip" {
		return nil, fmt.Errorf("unsupported Content-Encoding: %s", enc)
	}

	gr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}

	return readCloserChain{Reader: gr, Closers: []io.Closer{gr, body}}, nil
}

type readCloserChain struct {
	io.Reader
	Closers []io.Closer
}

func (r readCloserChain) Close() error {
	var firstErr error
	for _, c := range r.Closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
