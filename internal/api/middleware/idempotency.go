package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/api/tenantctx"
	"github.com/ETAnderson/catalogfeed/internal/state"
)

const IdempotencyHeaderKey = "Idempotency-Key"

// ReplayedHeaderKey marks a response served from the idempotency cache.
const ReplayedHeaderKey = "Idempotent-Replayed"

const DefaultIdempotencyTTL = 24 * time.Hour

// MaxIdempotentBody caps the request body read for fingerprinting.
const MaxIdempotentBody = 32 << 20

// IdempotencyMiddleware replays the stored response of an earlier write with
// the same Idempotency-Key, per tenant and path. A key reused with a
// different body is rejected with 422. Server errors are not stored.
type IdempotencyMiddleware struct {
	Store state.Store
	TTL   time.Duration
	Next  http.Handler
	Clock func() time.Time
}

func (m IdempotencyMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil || m.Store == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyHeaderKey))
	if idemKey == "" || !isWrite(r.Method) {
		m.Next.ServeHTTP(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxIdempotentBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "could not read request body")
		return
	}
	if len(body) > MaxIdempotentBody {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	requestHash := hex.EncodeToString(sum[:])

	endpoint := r.URL.Path
	if endpoint == "" {
		endpoint = "/"
	}
	tenantID := tenantctx.TenantID(r.Context())
	keyHash := state.HashIdempotencyKey(idemKey)

	rec, ok, err := m.Store.GetIdempotency(r.Context(), tenantID, endpoint, keyHash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "idempotency_lookup_failed", "")
		return
	}
	if ok {
		if rec.RequestHash != "" && rec.RequestHash != requestHash {
			writeError(w, http.StatusUnprocessableEntity, "idempotency_key_reused", "key was used with a different request body")
			return
		}
		replay(w, rec)
		return
	}

	rr := httptest.NewRecorder()
	m.Next.ServeHTTP(rr, r)

	for k, vals := range rr.Header() {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(rr.Code)
	_, _ = w.Write(rr.Body.Bytes())

	if rr.Code >= http.StatusInternalServerError {
		return
	}

	ttl := m.TTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	now := m.now()

	// the response is already written; a failed put only loses the replay
	_ = m.Store.PutIdempotency(r.Context(), tenantID, endpoint, keyHash, state.IdempotencyRecord{
		RequestHash: requestHash,
		StatusCode:  rr.Code,
		BodyJSON:    rr.Body.Bytes(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	})
}

func (m IdempotencyMiddleware) now() time.Time {
	if m.Clock != nil {
		return m.Clock().UTC()
	}
	return time.Now().UTC()
}

func replay(w http.ResponseWriter, rec state.IdempotencyRecord) {
	status := rec.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set(ReplayedHeaderKey, "true")
	w.WriteHeader(status)
	_, _ = w.Write(rec.BodyJSON)
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
