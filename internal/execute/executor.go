package execute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/channels"
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/ingest"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/sirupsen/logrus"
)

type Executor struct {
	Store state.Store

	Registry channels.Registry
	// EnabledChannels are built in order. Empty means every registered channel.
	EnabledChannels []string

	// ProductLimit controls how many run products we load for execution.
	// If <= 0, defaults to 100000.
	ProductLimit int

	// OnExecute runs before any channel with the run record and ONLY the
	// enqueued products for this run.
	OnExecute func(ctx context.Context, run state.RunRecord, enqueued []ingest.ProductProcessResult) error

	// OnChannelResult is called after a channel result has been recorded.
	OnChannelResult func(ctx context.Context, run state.RunRecord, res channels.BuildResult)

	Clock  func() time.Time
	Logger logrus.FieldLogger
}

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrRunNotClaimed = errors.New("run is not processing")
)

// Execute implements worker.RunExecutor.
// It validates run ownership, loads run products, filters to enqueued items
// and builds them for every enabled channel, recording per-item outcomes.
func (e Executor) Execute(ctx context.Context, runID string, tenantID uint64) error {
	if e.Store == nil {
		return errors.New("store is nil")
	}
	if runID == "" {
		return errors.New("runID is required")
	}
	if tenantID == 0 {
		return errors.New("tenantID is required")
	}

	limit := e.ProductLimit
	if limit <= 0 {
		limit = 100000
	}

	run, ok, err := e.Store.GetRun(ctx, tenantID, runID)
	if err != nil {
		return fmt.Errorf("get run failed: %w", err)
	}
	if !ok {
		return ErrRunNotFound
	}
	if run.Status != domain.RunStatusProcessing {
		return fmt.Errorf("%w: %s", ErrRunNotClaimed, run.Status)
	}

	products, err := e.Store.ListRunProducts(ctx, runID, limit)
	if err != nil {
		return fmt.Errorf("list run products failed: %w", err)
	}

	enqueued := make([]ingest.ProductProcessResult, 0, len(products))
	refs := make([]channels.ProductRef, 0, len(products))
	seen := make(map[uint64]struct{}, len(products))
	for _, p := range products {
		if p.Disposition != domain.ProductDispositionEnqueued {
			continue
		}
		if _, dup := seen[p.ProductID]; dup {
			continue
		}
		seen[p.ProductID] = struct{}{}
		enqueued = append(enqueued, p)
		refs = append(refs, channels.ProductRef{ProductID: p.ProductID, Hash: p.Hash})
	}

	if e.OnExecute != nil {
		if err := e.OnExecute(ctx, run, enqueued); err != nil {
			return err
		}
	}

	if len(refs) == 0 {
		return nil
	}

	log := e.logger().WithFields(logrus.Fields{"run_id": runID, "tenant_id": tenantID})

	enabled := e.EnabledChannels
	if len(enabled) == 0 {
		enabled = e.Registry.Names()
	}

	for _, name := range enabled {
		ch, ok := e.Registry.Get(name)
		if !ok {
			log.WithField("channel", name).Warn("enabled channel is not registered")
			continue
		}

		res, buildErr := ch.Build(ctx, tenantID, refs)
		if res.Channel != "" {
			if err := e.record(ctx, run, res); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"channel": res.Channel,
				"ok":      res.OkCount,
				"errors":  res.ErrCount,
			}).Info("channel build recorded")
		}
		if buildErr != nil {
			return fmt.Errorf("channel %s: %w", name, buildErr)
		}
	}

	return nil
}

func (e Executor) record(ctx context.Context, run state.RunRecord, res channels.BuildResult) error {
	prev, err := e.Store.ListRunChannelResults(ctx, run.TenantID, run.RunID)
	if err != nil {
		return fmt.Errorf("list channel results failed: %w", err)
	}
	res.Attempt = 1
	for _, r := range prev {
		if r.Channel == res.Channel && r.Attempt >= res.Attempt {
			res.Attempt = r.Attempt + 1
		}
	}

	if err := e.Store.InsertRunChannelResult(ctx, state.RunChannelResultRecord{
		RunID:     run.RunID,
		TenantID:  run.TenantID,
		Channel:   res.Channel,
		Attempt:   res.Attempt,
		OkCount:   res.OkCount,
		ErrCount:  res.ErrCount,
		CreatedAt: e.now(),
	}); err != nil {
		return fmt.Errorf("insert channel result failed: %w", err)
	}

	items := make([]state.RunChannelItemRecord, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, state.RunChannelItemRecord{
			RunID:     run.RunID,
			Channel:   res.Channel,
			ProductID: it.ProductID,
			OfferID:   it.OfferID,
			Status:    it.Status,
			Message:   it.Message,
			ItemJSON:  it.ItemJSON,
		})
	}
	if len(items) > 0 {
		if err := e.Store.InsertRunChannelItems(ctx, run.RunID, res.Channel, items); err != nil {
			return fmt.Errorf("insert channel items failed: %w", err)
		}
	}

	if e.OnChannelResult != nil {
		e.OnChannelResult(ctx, run, res)
	}
	return nil
}

func (e Executor) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e Executor) logger() logrus.FieldLogger {
	if e.Logger != nil {
		return e.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
