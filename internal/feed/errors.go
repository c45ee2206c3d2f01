package feed

import (
	"errors"
	"fmt"
)

// ErrProductUnavailable means the product could not be loaded at build time,
// usually because it was deleted after it was enqueued. It is terminal for
// that item.
var ErrProductUnavailable = errors.New("product unavailable")

// BuildError is the per-item failure reported by Build and BatchBuilder.
type BuildError struct {
	ProductID uint64
	Err       error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build feed item %d: %v", e.ProductID, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
