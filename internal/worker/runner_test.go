package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_RequiresStore(t *testing.T) {
	err := Runner{}.Run(context.Background())
	assert.EqualError(t, err, "store is nil")
}

func TestRunner_PollsUntilContextEnds(t *testing.T) {
	st := state.NewMemoryStore()
	require.NoError(t, st.InsertRun(context.Background(), state.RunRecord{
		RunID:         "run_late",
		TenantID:      1,
		Status:        domain.RunStatusHasChanges,
		PushTriggered: true,
		CreatedAt:     time.Now().UTC(),
	}))

	var handled atomic.Int32
	r := Runner{
		Store:     st,
		PollEvery: 5 * time.Millisecond,
		ProcessFn: func(context.Context, Job) error {
			handled.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// claimed once, never again
	assert.Equal(t, int32(1), handled.Load())
	rec, ok, err := st.GetRun(context.Background(), 1, "run_late")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RunStatusCompleted, rec.Status)
}
