// Package app assembles the store, channels and workers shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/ETAnderson/catalogfeed/internal/channels"
	"github.com/ETAnderson/catalogfeed/internal/channels/google"
	"github.com/ETAnderson/catalogfeed/internal/config"
	"github.com/ETAnderson/catalogfeed/internal/db"
	"github.com/ETAnderson/catalogfeed/internal/execute"
	"github.com/ETAnderson/catalogfeed/internal/images"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/ETAnderson/catalogfeed/internal/telemetry"
	"github.com/ETAnderson/catalogfeed/internal/worker"
	"github.com/sirupsen/logrus"
)

// OpenStore opens the configured state backend.
func OpenStore(ctx context.Context, cfg config.Config) (state.FactoryResult, error) {
	res, err := state.NewStore(ctx, state.FactoryConfig{
		Backend: cfg.StateBackend,
		MySQL: db.Config{
			DSN:             cfg.MySQLDSN,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		},
		RunMigrations: cfg.RunMigrations,
	})
	if err != nil {
		return state.FactoryResult{}, fmt.Errorf("state store: %w", err)
	}
	return res, nil
}

// GoogleChannel builds the google channel from the feed settings.
func GoogleChannel(cfg config.Config, st state.Store, metrics *telemetry.FeedMetrics, logger logrus.FieldLogger) google.Channel {
	ch := google.Channel{
		Store:             st,
		Feed:              cfg.Feed.FeedConfig(),
		Tax:               cfg.Feed.TaxCalculator(),
		Images:            images.BaseURLResolver{BaseURL: cfg.Feed.ImageBaseURL},
		ImageSize:         cfg.Feed.ImageSize,
		IdentifierMetaKey: cfg.Feed.IdentifierMetaKey,
		Concurrency:       cfg.Worker.Concurrency,
		Logger:            logger.WithField("channel", google.Name),
	}
	if metrics != nil {
		ch.Observer = metrics
	}
	return ch
}

// Runner wires the executor for every known channel into a polling runner.
func Runner(cfg config.Config, st state.Store, metrics *telemetry.FeedMetrics, logger logrus.FieldLogger) worker.Runner {
	exec := execute.Executor{
		Store:           st,
		Registry:        channels.NewRegistry(GoogleChannel(cfg, st, metrics, logger)),
		EnabledChannels: cfg.EnabledChannels,
		Logger:          logger,
	}

	r := worker.Runner{
		Store:       st,
		Executor:    exec,
		PollEvery:   cfg.Worker.PollEvery,
		MaxPerClaim: cfg.Worker.MaxPerClaim,
		Logger:      logger,
	}
	if metrics != nil {
		r.Observer = metrics
	}
	return r
}
