package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/app"
	"github.com/ETAnderson/catalogfeed/internal/config"
	"github.com/ETAnderson/catalogfeed/internal/logging"
	"github.com/ETAnderson/catalogfeed/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}
	logger := logging.NewLogger("worker", cfg.Env, cfg.LogLevel)

	logger.WithFields(logrus.Fields{
		"state_backend": cfg.StateBackend,
		"db_dsn_set":    cfg.MySQLDSN != "",
		"channels":      cfg.EnabledChannels,
		"poll_every":    cfg.Worker.PollEvery.String(),
	}).Info("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factoryRes, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("state store init failed")
	}
	if factoryRes.DB != nil {
		defer factoryRes.DB.Close()
	}

	metrics := telemetry.NewFeedMetrics(nil)
	runner := app.Runner(cfg, factoryRes.Store, metrics, logger)

	// metrics only; the worker has no other http surface
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Worker.MetricsPort,
		Handler:           promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server stopped")
		}
	}()

	logger.Info("starting")
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("worker stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
