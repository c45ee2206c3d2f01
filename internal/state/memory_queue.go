package state

import (
	"context"
	"sort"

	"github.com/ETAnderson/catalogfeed/internal/domain"
)

func claimable(r RunRecord) bool {
	return r.Status == domain.RunStatusHasChanges && r.PushTriggered && r.TenantID != 0
}

// ClaimRuns moves the oldest claimable runs to processing. Runs created at
// the same instant are claimed in run id order.
func (s *MemoryStore) ClaimRuns(ctx context.Context, limit int) ([]RunClaim, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []RunRecord
	for _, r := range s.runs {
		if claimable(r) {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].RunID < pending[j].RunID
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}

	claims := make([]RunClaim, 0, len(pending))
	for _, r := range pending {
		r.Status = domain.RunStatusProcessing
		s.runs[r.RunID] = r
		claims = append(claims, RunClaim{RunID: r.RunID, TenantID: r.TenantID, Enqueued: r.Enqueued})
	}
	return claims, nil
}

func (s *MemoryStore) CompleteRun(ctx context.Context, tenantID uint64, runID string) error {
	s.finish(tenantID, runID, domain.RunStatusCompleted, "")
	return nil
}

func (s *MemoryStore) FailRun(ctx context.Context, tenantID uint64, runID string, message string) error {
	s.finish(tenantID, runID, domain.RunStatusFailed, truncateMessage(message))
	return nil
}

// finish is a no-op for unknown runs, runs of another tenant and runs that
// were never claimed.
func (s *MemoryStore) finish(tenantID uint64, runID string, status domain.RunStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok || r.TenantID != tenantID || r.Status != domain.RunStatusProcessing {
		return
	}
	r.Status = status
	r.Message = message
	s.runs[runID] = r
}
