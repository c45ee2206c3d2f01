package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/ingest"
)

// ErrRunExists is returned by InsertRun when the run id is already taken.
var ErrRunExists = errors.New("run already exists")

// MemoryStore keeps all state in process. It backs dev, tests and single
// binary deployments with WORKER_EMBEDDED.
type MemoryStore struct {
	// Clock decides idempotency expiry. Defaults to time.Now.
	Clock func() time.Time

	mu sync.RWMutex

	productDocs map[uint64]map[uint64]ProductDocRecord // tenant -> product id -> doc

	runs        map[string]RunRecord
	runProducts map[string][]ingest.ProductProcessResult

	runChannelResults map[string]map[string]RunChannelResultRecord  // run -> channel -> latest attempt
	runChannelItems   map[string]map[string][]RunChannelItemRecord // run -> channel -> items

	idem map[idemKey]IdempotencyRecord
}

type idemKey struct {
	tenantID uint64
	endpoint string
	keyHash  string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		productDocs:       make(map[uint64]map[uint64]ProductDocRecord),
		runs:              make(map[string]RunRecord),
		runProducts:       make(map[string][]ingest.ProductProcessResult),
		runChannelResults: make(map[string]map[string]RunChannelResultRecord),
		runChannelItems:   make(map[string]map[string][]RunChannelItemRecord),
		idem:              make(map[idemKey]IdempotencyRecord),
	}
}

func (s *MemoryStore) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *MemoryStore) InsertRun(ctx context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.runs[run.RunID]; taken {
		return fmt.Errorf("%w: %s", ErrRunExists, run.RunID)
	}
	run.Warnings.UnknownKeys = slices.Clone(run.Warnings.UnknownKeys)
	s.runs[run.RunID] = run
	return nil
}

func (s *MemoryStore) GetRun(ctx context.Context, tenantID uint64, runID string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ownsRun(tenantID, runID) {
		return RunRecord{}, false, nil
	}
	return s.runs[runID], true, nil
}

// ListRuns returns the tenant's runs newest first.
func (s *MemoryStore) ListRuns(ctx context.Context, tenantID uint64, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []RunRecord{}
	for _, r := range s.runs {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RunID > out[j].RunID
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) InsertRunProducts(ctx context.Context, runID string, products []ingest.ProductProcessResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runProducts[runID] = slices.Clone(products)
	return nil
}

// ListRunProducts orders by product id and keeps insertion order among equal ids.
func (s *MemoryStore) ListRunProducts(ctx context.Context, runID string, limit int) ([]ingest.ProductProcessResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.runProducts[runID])
	if out == nil {
		out = []ingest.ProductProcessResult{}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetIdempotency(ctx context.Context, tenantID uint64, endpoint string, idemKeyHash string) (IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.idem[idemKey{tenantID, endpoint, idemKeyHash}]
	if !ok || s.now().After(rec.ExpiresAt) {
		return IdempotencyRecord{}, false, nil
	}
	rec.BodyJSON = slices.Clone(rec.BodyJSON)
	return rec, true, nil
}

// PutIdempotency also drops expired entries so the cache does not grow without bound.
func (s *MemoryStore) PutIdempotency(ctx context.Context, tenantID uint64, endpoint string, idemKeyHash string, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.idem {
		if now.After(v.ExpiresAt) {
			delete(s.idem, k)
		}
	}

	rec.BodyJSON = slices.Clone(rec.BodyJSON)
	s.idem[idemKey{tenantID, endpoint, idemKeyHash}] = rec
	return nil
}

// HashIdempotencyKey hashes a client key so raw keys are never stored.
func HashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// WarningsToJSON encodes warnings with sorted keys.
func WarningsToJSON(w ingest.UnknownKeyWarning) []byte {
	keys := slices.Clone(w.UnknownKeys)
	if keys == nil {
		keys = []string{}
	}
	sort.Strings(keys)
	b, _ := json.Marshal(ingest.UnknownKeyWarning{UnknownKeys: keys})
	return b
}
