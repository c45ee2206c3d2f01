package state

import (
	"context"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/ingest"
)

type RunRecord struct {
	RunID         string           `json:"run_id"`
	TenantID      uint64           `json:"tenant_id"`
	Status        domain.RunStatus `json:"status"`
	PushTriggered bool             `json:"push_triggered"`

	Received  int `json:"received"`
	Valid     int `json:"valid"`
	Rejected  int `json:"rejected"`
	Unchanged int `json:"unchanged"`
	Enqueued  int `json:"enqueued"`

	Warnings  ingest.UnknownKeyWarning `json:"warnings"`
	Message   string                   `json:"message,omitempty"` // failure reason
	CreatedAt time.Time                `json:"created_at"`
}

// RunClaim is a run moved to processing by ClaimRuns.
type RunClaim struct {
	RunID    string
	TenantID uint64
	Enqueued int
}

// MaxRunMessage caps the failure message stored on a run, in runes.
const MaxRunMessage = 1024

func truncateMessage(msg string) string {
	r := []rune(msg)
	if len(r) <= MaxRunMessage {
		return msg
	}
	return string(r[:MaxRunMessage-3]) + "..."
}

// ProductDocRecord is the last accepted snapshot of a product and the
// normalized hash it was accepted under. Both are written together.
type ProductDocRecord struct {
	ProductJSON []byte
	Hash        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RunChannelResultRecord struct {
	RunID     string    `json:"run_id"`
	TenantID  uint64    `json:"tenant_id"`
	Channel   string    `json:"channel"`
	Attempt   int       `json:"attempt"`
	OkCount   int       `json:"ok_count"`
	ErrCount  int       `json:"err_count"`
	CreatedAt time.Time `json:"created_at"`
}

type RunChannelItemRecord struct {
	RunID     string `json:"run_id"`
	Channel   string `json:"channel"`
	ProductID uint64 `json:"product_id"`
	OfferID   string `json:"offer_id,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	ItemJSON  []byte `json:"-"`
}

type IdempotencyRecord struct {
	// RequestHash fingerprints the request body the response belongs to.
	RequestHash string
	StatusCode  int
	BodyJSON    []byte
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

type Store interface {
	// Canonical product state
	GetProductHash(ctx context.Context, tenantID uint64, productID uint64) (hash string, ok bool, err error)
	GetProductDoc(ctx context.Context, tenantID uint64, productID uint64) (ProductDocRecord, bool, error)
	UpsertProductDoc(ctx context.Context, tenantID uint64, productID uint64, rec ProductDocRecord) error
	ListProductIDs(ctx context.Context, tenantID uint64, afterID uint64, limit int) ([]uint64, error)

	// Runs
	InsertRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, tenantID uint64, runID string) (RunRecord, bool, error)
	ListRuns(ctx context.Context, tenantID uint64, limit int) ([]RunRecord, error)
	InsertRunProducts(ctx context.Context, runID string, products []ingest.ProductProcessResult) error
	ListRunProducts(ctx context.Context, runID string, limit int) ([]ingest.ProductProcessResult, error)

	// Queue. Complete and Fail only move runs that are processing.
	ClaimRuns(ctx context.Context, limit int) ([]RunClaim, error)
	CompleteRun(ctx context.Context, tenantID uint64, runID string) error
	FailRun(ctx context.Context, tenantID uint64, runID string, message string) error

	// Channel results. One result row per (run, channel) holds the latest attempt;
	// items of a channel are replaced wholesale on every attempt.
	InsertRunChannelResult(ctx context.Context, rec RunChannelResultRecord) error
	InsertRunChannelItems(ctx context.Context, runID string, channel string, items []RunChannelItemRecord) error
	ListRunChannelResults(ctx context.Context, tenantID uint64, runID string) ([]RunChannelResultRecord, error)
	ListRunChannelItems(ctx context.Context, tenantID uint64, runID string, channel string, limit int) ([]RunChannelItemRecord, error)

	// Idempotency cache
	GetIdempotency(ctx context.Context, tenantID uint64, endpoint string, idemKeyHash string) (IdempotencyRecord, bool, error)
	PutIdempotency(ctx context.Context, tenantID uint64, endpoint string, idemKeyHash string, rec IdempotencyRecord) error
}
