package state

import (
	"context"
	"database/sql"
	"errors"
)

func (s *MySQLStore) GetProductHash(ctx context.Context, tenantID uint64, productID uint64) (string, bool, error) {
	var h string
	err := s.db.QueryRowContext(ctx, `
SELECT normalized_hash
FROM product_docs
WHERE tenant_id = ? AND product_id = ?
`, tenantID, productID).Scan(&h)

	if errors.Is(err, sql.ErrNoRows) || (err == nil && h == "") {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return h, true, nil
}

func (s *MySQLStore) GetProductDoc(ctx context.Context, tenantID uint64, productID uint64) (ProductDocRecord, bool, error) {
	var rec ProductDocRecord

	err := s.db.QueryRowContext(ctx, `
SELECT product_json, normalized_hash, created_at, updated_at
FROM product_docs
WHERE tenant_id = ? AND product_id = ?
`, tenantID, productID).Scan(&rec.ProductJSON, &rec.Hash, &rec.CreatedAt, &rec.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ProductDocRecord{}, false, nil
	}
	if err != nil {
		return ProductDocRecord{}, false, err
	}
	return rec, true, nil
}

// UpsertProductDoc writes the snapshot and its hash in one statement, so a
// reader never sees a new hash with an old document.
func (s *MySQLStore) UpsertProductDoc(ctx context.Context, tenantID uint64, productID uint64, rec ProductDocRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO product_docs (tenant_id, product_id, product_json, normalized_hash)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  product_json = VALUES(product_json),
  normalized_hash = VALUES(normalized_hash)
`, tenantID, productID, rec.ProductJSON, rec.Hash)

	return err
}

func (s *MySQLStore) ListProductIDs(ctx context.Context, tenantID uint64, afterID uint64, limit int) ([]uint64, error) {
	if limit <= 0 {
		limit = 1000
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT product_id
FROM product_docs
WHERE tenant_id = ? AND product_id > ?
ORDER BY product_id ASC
LIMIT ?
`, tenantID, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0, limit)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
