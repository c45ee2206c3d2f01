package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/sirupsen/logrus"
)

type Runner struct {
	Store       state.Store
	PollEvery   time.Duration
	MaxPerClaim int

	// Executor handles claimed runs. ProcessFn is used when it is nil.
	Executor  RunExecutor
	ProcessFn func(ctx context.Context, job Job) error

	Observer RunObserver
	Logger   logrus.FieldLogger
}

type Job struct {
	RunID    string
	TenantID uint64
}

func (r Runner) Run(ctx context.Context) error {
	if r.Store == nil {
		return errors.New("store is nil")
	}
	if r.PollEvery <= 0 {
		r.PollEvery = 500 * time.Millisecond
	}
	if r.MaxPerClaim <= 0 {
		r.MaxPerClaim = 10
	}

	ticker := time.NewTicker(r.PollEvery)
	defer ticker.Stop()

	// one immediate pass
	if err := r.tick(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (r Runner) tick(ctx context.Context) error {
	claims, err := r.Store.ClaimRuns(ctx, r.MaxPerClaim)
	if err != nil {
		return err
	}

	for _, c := range claims {
		job := Job{
			RunID:    c.RunID,
			TenantID: c.TenantID,
		}
		jobCtx := WithJob(ctx, job)
		log := r.logger().WithFields(LogFields(jobCtx)).WithField("enqueued", c.Enqueued)
		start := time.Now()

		if err := r.process(jobCtx, job); err != nil {
			log.WithError(err).Error("run failed")
			if ferr := r.Store.FailRun(context.WithoutCancel(ctx), c.TenantID, c.RunID, err.Error()); ferr != nil {
				log.WithError(ferr).Error("mark run failed")
			}
			r.observe(domain.RunStatusFailed)
			continue
		}

		if err := r.Store.CompleteRun(ctx, c.TenantID, c.RunID); err != nil {
			log.WithError(err).Error("mark run completed")
			continue
		}
		log.WithField("elapsed", time.Since(start).String()).Info("run completed")
		r.observe(domain.RunStatusCompleted)
	}

	return nil
}

func (r Runner) process(ctx context.Context, job Job) error {
	if r.Executor != nil {
		return r.Executor.Execute(ctx, job.RunID, job.TenantID)
	}
	if r.ProcessFn != nil {
		return r.ProcessFn(ctx, job)
	}
	return nil
}

func (r Runner) observe(status domain.RunStatus) {
	if r.Observer != nil {
		r.Observer.ObserveRun(string(status))
	}
}

func (r Runner) logger() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
