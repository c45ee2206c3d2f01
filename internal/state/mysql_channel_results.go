package state

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// itemInsertBatch bounds the rows of one multi-row INSERT into run_channel_items.
const itemInsertBatch = 200

func (s *MySQLStore) InsertRunChannelResult(ctx context.Context, rec RunChannelResultRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO run_channel_results (run_id, tenant_id, channel, attempt, ok_count, err_count, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  attempt = VALUES(attempt),
  ok_count = VALUES(ok_count),
  err_count = VALUES(err_count),
  created_at = VALUES(created_at)
`, rec.RunID, rec.TenantID, rec.Channel, rec.Attempt, rec.OkCount, rec.ErrCount, created)
	return err
}

// InsertRunChannelItems replaces the items of a run and channel in one transaction.
func (s *MySQLStore) InsertRunChannelItems(ctx context.Context, runID string, channel string, items []RunChannelItemRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin items: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM run_channel_items
WHERE run_id = ? AND channel = ?
`, runID, channel); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}

	for start := 0; start < len(items); start += itemInsertBatch {
		end := min(start+itemInsertBatch, len(items))
		if err := insertItemBatch(ctx, tx, runID, channel, items[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit items: %w", err)
	}
	return nil
}

func insertItemBatch(ctx context.Context, tx *sql.Tx, runID, channel string, batch []RunChannelItemRecord) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO run_channel_items (run_id, channel, product_id, offer_id, status, message, item_json) VALUES ")

	args := make([]any, 0, len(batch)*7)
	for i, it := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")

		var itemJSON any
		if len(it.ItemJSON) > 0 {
			itemJSON = it.ItemJSON
		}
		args = append(args, runID, channel, it.ProductID, it.OfferID, it.Status, it.Message, itemJSON)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

func (s *MySQLStore) ListRunChannelResults(ctx context.Context, tenantID uint64, runID string) ([]RunChannelResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, tenant_id, channel, attempt, ok_count, err_count, created_at
FROM run_channel_results
WHERE tenant_id = ? AND run_id = ?
ORDER BY channel ASC
`, tenantID, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RunChannelResultRecord{}
	for rows.Next() {
		var r RunChannelResultRecord
		if err := rows.Scan(&r.RunID, &r.TenantID, &r.Channel, &r.Attempt, &r.OkCount, &r.ErrCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRunChannelItems joins runs so items of another tenant's run are never returned.
func (s *MySQLStore) ListRunChannelItems(ctx context.Context, tenantID uint64, runID string, channel string, limit int) ([]RunChannelItemRecord, error) {
	if limit <= 0 {
		limit = 1000
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT i.run_id, i.channel, i.product_id, i.offer_id, i.status, i.message, i.item_json
FROM run_channel_items i
JOIN runs r ON r.run_id = i.run_id
WHERE r.tenant_id = ? AND i.run_id = ? AND i.channel = ?
ORDER BY i.product_id ASC
LIMIT ?
`, tenantID, runID, channel, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RunChannelItemRecord{}
	for rows.Next() {
		var it RunChannelItemRecord
		var itemJSON []byte
		if err := rows.Scan(&it.RunID, &it.Channel, &it.ProductID, &it.OfferID, &it.Status, &it.Message, &itemJSON); err != nil {
			return nil, err
		}
		it.ItemJSON = itemJSON
		out = append(out, it)
	}
	return out, rows.Err()
}
