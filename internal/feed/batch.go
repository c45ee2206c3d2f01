package feed

import (
	"context"
	"errors"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/attributes"
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// Build outcome labels reported to an Observer.
const (
	StatusBuilt       = "built"
	StatusUnavailable = "unavailable"
	StatusFailed      = "failed"
	StatusSkipped     = "skipped"
)

type Observer interface {
	ObserveBuild(channel, status string, elapsed time.Duration)
}

type Result struct {
	ProductID uint64
	Item      domain.FeedItem
	Err       error
}

func (r Result) Status() string {
	switch {
	case r.Err == nil:
		return StatusBuilt
	case errors.Is(r.Err, ErrProductUnavailable):
		return StatusUnavailable
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return StatusSkipped
	default:
		return StatusFailed
	}
}

// BatchBuilder builds many items with bounded concurrency. Every build gets
// its own attribute Scope.
type BatchBuilder struct {
	// Name labels observations, usually the destination channel.
	Name        string
	Builder     Builder
	Attributes  *attributes.Pipeline
	Concurrency int
	Observer    Observer
}

// BuildAll returns one Result per id, in input order. Once ctx is done no
// new builds start and the remaining ids are reported as skipped; builds
// already running complete. The returned error is ctx.Err().
func (bb BatchBuilder) BuildAll(ctx context.Context, ids []uint64, cfg Config) ([]Result, error) {
	results := make([]Result, len(ids))

	limit := bb.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)

	// started builds run to completion even if ctx is cancelled
	runCtx := context.WithoutCancel(ctx)

	skipped := func(id uint64, err error) Result {
		return Result{ProductID: id, Err: &BuildError{ProductID: id, Err: err}}
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			results[i] = skipped(id, err)
			continue
		}
		g.Go(func() error {
			// ctx may have been cancelled while waiting for a slot
			if err := ctx.Err(); err != nil {
				results[i] = skipped(id, err)
				return nil
			}
			results[i] = bb.buildOne(runCtx, id, cfg)
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

func (bb BatchBuilder) buildOne(ctx context.Context, id uint64, cfg Config) Result {
	start := time.Now()
	res := Result{ProductID: id}

	p, err := bb.Builder.Load(ctx, id)
	if err == nil {
		res.Item, err = bb.Builder.BuildProduct(ctx, p, cfg)
	}
	if err == nil && bb.Attributes != nil {
		scope := attributes.NewScope(ctx, bb.Builder.logger().WithField("product_id", id))
		res.Item = bb.Attributes.Apply(scope, res.Item, p)
	}
	res.Err = err

	if bb.Observer != nil {
		name := bb.Name
		if name == "" {
			name = cfg.Channel
		}
		bb.Observer.ObserveBuild(name, res.Status(), time.Since(start))
	}
	return res
}
