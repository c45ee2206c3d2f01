package worker

import "context"

// RunExecutor performs the channel work of one claimed run.
type RunExecutor interface {
	Execute(ctx context.Context, runID string, tenantID uint64) error
}

// ExecutorFunc adapts a plain function to RunExecutor.
type ExecutorFunc func(ctx context.Context, runID string, tenantID uint64) error

func (f ExecutorFunc) Execute(ctx context.Context, runID string, tenantID uint64) error {
	return f(ctx, runID, tenantID)
}

// RunObserver counts finished runs by final status.
type RunObserver interface {
	ObserveRun(status string)
}
