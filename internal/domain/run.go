package domain

// RunStatus is the lifecycle of one ingest run:
// has_changes -> processing -> completed | failed. Runs with nothing to push
// are recorded as no_change_detected and never claimed.
type RunStatus string

const (
	RunStatusNoChangeDetected RunStatus = "no_change_detected"
	RunStatusHasChanges       RunStatus = "has_changes"
	RunStatusProcessing       RunStatus = "processing"
	RunStatusCompleted        RunStatus = "completed"
	RunStatusFailed           RunStatus = "failed"
)

// Terminal reports whether the worker is done with a run in this status.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusNoChangeDetected, RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// ProductDisposition is what one ingest run decided for one product.
type ProductDisposition string

const (
	ProductDispositionRejected  ProductDisposition = "rejected"
	ProductDispositionUnchanged ProductDisposition = "unchanged"
	ProductDispositionEnqueued  ProductDisposition = "enqueued"
)
