package execute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/ingest"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRun(t *testing.T, st state.Store, runID string, tenantID uint64, status domain.RunStatus, products ...ingest.ProductProcessResult) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.InsertRun(ctx, state.RunRecord{
		RunID:         runID,
		TenantID:      tenantID,
		Status:        status,
		PushTriggered: true,
		CreatedAt:     time.Now().UTC(),
	}))
	require.NoError(t, st.InsertRunProducts(ctx, runID, products))
}

func TestExecutor_Execute_HandsOnlyEnqueuedProductsToHook(t *testing.T) {
	st := state.NewMemoryStore()
	seedRun(t, st, "run_1", 1, domain.RunStatusProcessing,
		ingest.ProductProcessResult{ProductID: 3, Disposition: domain.ProductDispositionEnqueued, Reason: ingest.ReasonContentChanged, Hash: "ccc"},
		ingest.ProductProcessResult{ProductID: 2, Disposition: domain.ProductDispositionUnchanged, Reason: ingest.ReasonNoChange, Hash: "bbb"},
		ingest.ProductProcessResult{ProductID: 1, Disposition: domain.ProductDispositionEnqueued, Reason: ingest.ReasonNewProduct, Hash: "aaa"},
		ingest.ProductProcessResult{ProductID: 0, Disposition: domain.ProductDispositionRejected, Reason: ingest.ReasonUndecodableLine},
	)

	var (
		gotRun      state.RunRecord
		gotEnqueued []ingest.ProductProcessResult
	)
	ex := Executor{
		Store: st,
		OnExecute: func(_ context.Context, run state.RunRecord, enq []ingest.ProductProcessResult) error {
			gotRun = run
			gotEnqueued = append([]ingest.ProductProcessResult(nil), enq...)
			return nil
		},
	}

	require.NoError(t, ex.Execute(context.Background(), "run_1", 1))
	assert.Equal(t, "run_1", gotRun.RunID)
	require.Len(t, gotEnqueued, 2)
	assert.Equal(t, uint64(1), gotEnqueued[0].ProductID)
	assert.Equal(t, uint64(3), gotEnqueued[1].ProductID)
}

func TestExecutor_Execute_CollapsesRepeatedProducts(t *testing.T) {
	st := state.NewMemoryStore()
	seedRun(t, st, "run_dup", 1, domain.RunStatusProcessing,
		ingest.ProductProcessResult{ProductID: 10, Disposition: domain.ProductDispositionEnqueued, Reason: ingest.ReasonContentChanged},
		ingest.ProductProcessResult{ProductID: 10, Disposition: domain.ProductDispositionEnqueued, Reason: ingest.ReasonChildChanged},
	)

	var n int
	ex := Executor{
		Store: st,
		OnExecute: func(_ context.Context, _ state.RunRecord, enq []ingest.ProductProcessResult) error {
			n = len(enq)
			return nil
		},
	}

	require.NoError(t, ex.Execute(context.Background(), "run_dup", 1))
	assert.Equal(t, 1, n)
}

func TestExecutor_Execute_Errors(t *testing.T) {
	st := state.NewMemoryStore()
	seedRun(t, st, "run_owned", 1, domain.RunStatusProcessing)
	seedRun(t, st, "run_pending", 1, domain.RunStatusHasChanges)

	hookErr := errors.New("executor hook failed")

	cases := []struct {
		name     string
		ex       Executor
		runID    string
		tenantID uint64
		want     error
		msg      string
	}{
		{name: "no store", ex: Executor{}, runID: "run_owned", tenantID: 1, msg: "store is nil"},
		{name: "no run id", ex: Executor{Store: st}, tenantID: 1, msg: "runID is required"},
		{name: "no tenant", ex: Executor{Store: st}, runID: "run_owned", msg: "tenantID is required"},
		{name: "wrong tenant", ex: Executor{Store: st}, runID: "run_owned", tenantID: 2, want: ErrRunNotFound},
		{name: "unknown run", ex: Executor{Store: st}, runID: "nope", tenantID: 1, want: ErrRunNotFound},
		{name: "not claimed", ex: Executor{Store: st}, runID: "run_pending", tenantID: 1, want: ErrRunNotClaimed},
		{
			name: "hook error",
			ex: Executor{Store: st, OnExecute: func(context.Context, state.RunRecord, []ingest.ProductProcessResult) error {
				return hookErr
			}},
			runID: "run_owned", tenantID: 1, want: hookErr,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ex.Execute(context.Background(), tc.runID, tc.tenantID)
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
			if tc.msg != "" {
				assert.EqualError(t, err, tc.msg)
			}
		})
	}
}
