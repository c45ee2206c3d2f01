package state

import (
	"context"
	"slices"
	"time"
)

func (s *MemoryStore) GetProductHash(ctx context.Context, tenantID uint64, productID uint64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.productDocs[tenantID][productID]
	if !ok || rec.Hash == "" {
		return "", false, nil
	}
	return rec.Hash, true, nil
}

func (s *MemoryStore) GetProductDoc(ctx context.Context, tenantID uint64, productID uint64) (ProductDocRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.productDocs[tenantID][productID]
	if !ok {
		return ProductDocRecord{}, false, nil
	}
	rec.ProductJSON = slices.Clone(rec.ProductJSON)
	return rec, true, nil
}

func (s *MemoryStore) UpsertProductDoc(ctx context.Context, tenantID uint64, productID uint64, rec ProductDocRecord) error {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.productDocs[tenantID]
	if docs == nil {
		docs = make(map[uint64]ProductDocRecord)
		s.productDocs[tenantID] = docs
	}

	rec.ProductJSON = slices.Clone(rec.ProductJSON)
	rec.CreatedAt, rec.UpdatedAt = now, now
	if existing, ok := docs[productID]; ok {
		rec.CreatedAt = existing.CreatedAt
	}
	docs[productID] = rec
	return nil
}

// ListProductIDs pages through a tenant's stored products in id order.
func (s *MemoryStore) ListProductIDs(ctx context.Context, tenantID uint64, afterID uint64, limit int) ([]uint64, error) {
	if limit <= 0 {
		limit = 1000
	}

	s.mu.RLock()
	ids := make([]uint64, 0, len(s.productDocs[tenantID]))
	for id := range s.productDocs[tenantID] {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	slices.Sort(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
