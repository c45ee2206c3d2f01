package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ETAnderson/catalogfeed/internal/domain"
)

// ProductLoader reads one tenant's product snapshots. It satisfies
// feed.ProductLoader.
type ProductLoader struct {
	Store    Store
	TenantID uint64
}

func (l ProductLoader) GetProduct(ctx context.Context, id uint64) (domain.Product, bool, error) {
	doc, ok, err := l.Store.GetProductDoc(ctx, l.TenantID, id)
	if err != nil || !ok {
		return domain.Product{}, false, err
	}

	var p domain.Product
	if err := json.Unmarshal(doc.ProductJSON, &p); err != nil {
		return domain.Product{}, false, fmt.Errorf("decode product %d: %w", id, err)
	}
	return p, true, nil
}

// PutProduct stores p and its normalized hash.
func PutProduct(ctx context.Context, st Store, tenantID uint64, p domain.Product, hash string) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return st.UpsertProductDoc(ctx, tenantID, p.ID, ProductDocRecord{ProductJSON: b, Hash: hash})
}
