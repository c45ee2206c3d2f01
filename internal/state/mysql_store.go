package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/db"
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/ingest"
)

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) InsertRun(ctx context.Context, run RunRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
			run_id, tenant_id, status, push_triggered,
			received, valid, rejected, unchanged, enqueued,
			warnings_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.TenantID, string(run.Status), run.PushTriggered,
		run.Received, run.Valid, run.Rejected, run.Unchanged, run.Enqueued,
		WarningsToJSON(run.Warnings), run.CreatedAt.UTC(),
	)
	if db.IsDuplicateKey(err) {
		return fmt.Errorf("%w: %s", ErrRunExists, run.RunID)
	}
	return err
}

const runColumns = `run_id, tenant_id, status, push_triggered,
	received, valid, rejected, unchanged, enqueued,
	warnings_json, message, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		r        RunRecord
		status   string
		warnings []byte
		message  sql.NullString
	)
	err := row.Scan(
		&r.RunID, &r.TenantID, &status, &r.PushTriggered,
		&r.Received, &r.Valid, &r.Rejected, &r.Unchanged, &r.Enqueued,
		&warnings, &message, &r.CreatedAt,
	)
	if err != nil {
		return RunRecord{}, err
	}

	r.Status = domain.RunStatus(status)
	r.Message = message.String
	r.CreatedAt = r.CreatedAt.UTC()
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &r.Warnings); err != nil {
			return RunRecord{}, err
		}
	}
	return r, nil
}

func (s *MySQLStore) GetRun(ctx context.Context, tenantID uint64, runID string) (RunRecord, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE tenant_id = ? AND run_id = ?`,
		tenantID, runID,
	)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, false, nil
	}
	if err != nil {
		return RunRecord{}, false, err
	}
	return r, true, nil
}

func (s *MySQLStore) ListRuns(ctx context.Context, tenantID uint64, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE tenant_id = ? ORDER BY created_at DESC, run_id DESC LIMIT ?`,
		tenantID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RunRecord, 0, limit)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *MySQLStore) InsertRunProducts(ctx context.Context, runID string, products []ingest.ProductProcessResult) error {
	// row by row; runs are bounded by the upsert request size. seq keeps
	// rejected duplicates and undecodable lines (product id 0) distinct.
	for i, p := range products {
		issues, err := json.Marshal(p.Issues)
		if err != nil {
			return err
		}

		_, err = s.db.ExecContext(
			ctx,
			`INSERT INTO run_products (run_id, seq, product_id, disposition, reason, normalized_hash, issues_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i, p.ProductID, string(p.Disposition), p.Reason, p.Hash, issues,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) ListRunProducts(ctx context.Context, runID string, limit int) ([]ingest.ProductProcessResult, error) {
	if limit <= 0 {
		limit = 1000
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT product_id, disposition, reason, normalized_hash, issues_json
FROM run_products
WHERE run_id = ?
ORDER BY product_id ASC, seq ASC
LIMIT ?
`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ingest.ProductProcessResult, 0, 64)
	for rows.Next() {
		var (
			p           ingest.ProductProcessResult
			disposition string
			issues      []byte
		)
		if err := rows.Scan(&p.ProductID, &disposition, &p.Reason, &p.Hash, &issues); err != nil {
			return nil, err
		}
		p.Disposition = domain.ProductDisposition(disposition)
		if len(issues) > 0 && string(issues) != "null" {
			if err := json.Unmarshal(issues, &p.Issues); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *MySQLStore) GetIdempotency(ctx context.Context, tenantID uint64, endpoint string, idemKeyHash string) (IdempotencyRecord, bool, error) {
	var rec IdempotencyRecord

	err := s.db.QueryRowContext(
		ctx,
		`SELECT request_hash, status_code, response_body_json, created_at, expires_at
		 FROM idempotency
		 WHERE tenant_id = ? AND endpoint = ? AND idem_key_hash = ?`,
		tenantID, endpoint, idemKeyHash,
	).Scan(&rec.RequestHash, &rec.StatusCode, &rec.BodyJSON, &rec.CreatedAt, &rec.ExpiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	if time.Now().UTC().After(rec.ExpiresAt.UTC()) {
		return IdempotencyRecord{}, false, nil
	}

	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	return rec, true, nil
}

func (s *MySQLStore) PutIdempotency(ctx context.Context, tenantID uint64, endpoint string, idemKeyHash string, rec IdempotencyRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO idempotency (tenant_id, endpoint, idem_key_hash, request_hash, status_code, response_body_json, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   request_hash = VALUES(request_hash),
		   status_code = VALUES(status_code),
		   response_body_json = VALUES(response_body_json),
		   created_at = VALUES(created_at),
		   expires_at = VALUES(expires_at)`,
		tenantID, endpoint, idemKeyHash, rec.RequestHash, rec.StatusCode, rec.BodyJSON, rec.CreatedAt.UTC(), rec.ExpiresAt.UTC(),
	)
	return err
}
