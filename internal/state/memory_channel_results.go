package state

import (
	"context"
	"slices"
	"sort"
	"time"
)

// InsertRunChannelResult keeps the latest attempt per channel.
func (s *MemoryStore) InsertRunChannelResult(ctx context.Context, rec RunChannelResultRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byChannel := s.runChannelResults[rec.RunID]
	if byChannel == nil {
		byChannel = make(map[string]RunChannelResultRecord)
		s.runChannelResults[rec.RunID] = byChannel
	}
	byChannel[rec.Channel] = rec
	return nil
}

func (s *MemoryStore) InsertRunChannelItems(ctx context.Context, runID string, channel string, items []RunChannelItemRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byChannel := s.runChannelItems[runID]
	if byChannel == nil {
		byChannel = make(map[string][]RunChannelItemRecord)
		s.runChannelItems[runID] = byChannel
	}
	byChannel[channel] = slices.Clone(items)
	return nil
}

func (s *MemoryStore) ListRunChannelResults(ctx context.Context, tenantID uint64, runID string) ([]RunChannelResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []RunChannelResultRecord{}
	if !s.ownsRun(tenantID, runID) {
		return out, nil
	}
	for _, rec := range s.runChannelResults[runID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out, nil
}

func (s *MemoryStore) ListRunChannelItems(ctx context.Context, tenantID uint64, runID string, channel string, limit int) ([]RunChannelItemRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ownsRun(tenantID, runID) {
		return []RunChannelItemRecord{}, nil
	}

	out := slices.Clone(s.runChannelItems[runID][channel])
	if out == nil {
		out = []RunChannelItemRecord{}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ownsRun must be called with s.mu held.
func (s *MemoryStore) ownsRun(tenantID uint64, runID string) bool {
	r, ok := s.runs[runID]
	return ok && r.TenantID == tenantID
}
