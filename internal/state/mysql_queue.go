package state

import (
	"context"
	"database/sql"
	"fmt"
)

// ClaimRuns locks the oldest claimable runs and moves them to processing in one
// transaction. SKIP LOCKED lets several workers claim concurrently without
// handing out the same run twice.
func (s *MySQLStore) ClaimRuns(ctx context.Context, limit int) ([]RunClaim, error) {
	if limit <= 0 {
		limit = 10
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
SELECT run_id, tenant_id, enqueued
FROM runs
WHERE status = 'has_changes' AND push_triggered = 1 AND tenant_id <> 0
ORDER BY created_at ASC, run_id ASC
LIMIT ?
FOR UPDATE SKIP LOCKED
`, limit)
	if err != nil {
		return nil, fmt.Errorf("select claimable runs: %w", err)
	}

	var claims []RunClaim
	for rows.Next() {
		var c RunClaim
		if err := rows.Scan(&c.RunID, &c.TenantID, &c.Enqueued); err != nil {
			rows.Close()
			return nil, err
		}
		claims = append(claims, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range claims {
		if _, err := tx.ExecContext(ctx, `
UPDATE runs
SET status = 'processing'
WHERE run_id = ? AND tenant_id = ? AND status = 'has_changes'
`, c.RunID, c.TenantID); err != nil {
			return nil, fmt.Errorf("mark run %s processing: %w", c.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return claims, nil
}

func (s *MySQLStore) CompleteRun(ctx context.Context, tenantID uint64, runID string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE runs
SET status = 'completed', message = NULL
WHERE run_id = ? AND tenant_id = ? AND status = 'processing'
`, runID, tenantID)
	return err
}

func (s *MySQLStore) FailRun(ctx context.Context, tenantID uint64, runID string, message string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE runs
SET status = 'failed', message = ?
WHERE run_id = ? AND tenant_id = ? AND status = 'processing'
`, truncateMessage(message), runID, tenantID)
	return err
}
