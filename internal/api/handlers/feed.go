package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ETAnderson/catalogfeed/internal/api/tenantctx"
	"github.com/ETAnderson/catalogfeed/internal/channels"
	"github.com/ETAnderson/catalogfeed/internal/channels/google"
	"github.com/ETAnderson/catalogfeed/internal/feed"
)

// MaxBuildIDs bounds a single POST /v1/feed:build request.
const MaxBuildIDs = 500

// FeedBuilder is satisfied by google.Channel.
type FeedBuilder interface {
	channels.Channel
	BuildItem(ctx context.Context, tenantID uint64, productID uint64) (google.Product, error)
}

// FeedItemHandler serves GET /v1/feed/items/{id}.
type FeedItemHandler struct {
	Builder FeedBuilder
}

func (h FeedItemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Builder == nil {
		writeError(w, http.StatusInternalServerError, "misconfigured", "handler dependencies not configured")
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid_product_id", "id must be a positive integer")
		return
	}

	item, err := h.Builder.BuildItem(r.Context(), tenantctx.TenantID(r.Context()), id)
	switch {
	case errors.Is(err, feed.ErrProductUnavailable):
		writeError(w, http.StatusNotFound, "product_unavailable", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "build_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// FeedBuildHandler serves POST /v1/feed:build with {"product_ids": [...]}.
type FeedBuildHandler struct {
	Builder FeedBuilder
}

type feedBuildRequest struct {
	ProductIDs []uint64 `json:"product_ids"`
}

type feedBuildItem struct {
	ProductID uint64          `json:"product_id"`
	OfferID   string          `json:"offer_id,omitempty"`
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Item      json.RawMessage `json:"item,omitempty"`
}

func (h FeedBuildHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Builder == nil {
		writeError(w, http.StatusInternalServerError, "misconfigured", "handler dependencies not configured")
		return
	}

	var req feedBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(req.ProductIDs) == 0 {
		writeError(w, http.StatusBadRequest, "missing_product_ids", "product_ids must not be empty")
		return
	}
	if len(req.ProductIDs) > MaxBuildIDs {
		writeError(w, http.StatusBadRequest, "too_many_product_ids", "at most "+strconv.Itoa(MaxBuildIDs)+" product_ids per request")
		return
	}

	refs := make([]channels.ProductRef, len(req.ProductIDs))
	for i, id := range req.ProductIDs {
		refs[i] = channels.ProductRef{ProductID: id}
	}

	res, err := h.Builder.Build(r.Context(), tenantctx.TenantID(r.Context()), refs)
	if err != nil && len(res.Items) == 0 {
		writeError(w, http.StatusInternalServerError, "build_failed", err.Error())
		return
	}

	items := make([]feedBuildItem, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, feedBuildItem{
			ProductID: it.ProductID,
			OfferID:   it.OfferID,
			Status:    it.Status,
			Message:   it.Message,
			Item:      json.RawMessage(it.ItemJSON),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channel":   res.Channel,
		"ok_count":  res.OkCount,
		"err_count": res.ErrCount,
		"items":     items,
	})
}
