package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/api/auth"
	"github.com/ETAnderson/catalogfeed/internal/api/handlers"
	"github.com/ETAnderson/catalogfeed/internal/app"
	"github.com/ETAnderson/catalogfeed/internal/config"
	"github.com/ETAnderson/catalogfeed/internal/logging"
	"github.com/ETAnderson/catalogfeed/internal/telemetry"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}
	logger := logging.NewLogger("api", cfg.Env, cfg.LogLevel)

	logger.WithFields(logrus.Fields{
		"state_backend": cfg.StateBackend,
		"db_dsn_set":    cfg.MySQLDSN != "",
		"channels":      cfg.EnabledChannels,
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

	pub, err := auth.LoadRSAPublicKeyFromEnv(cfg.JWTPublicKeyEnv)
	if err != nil {
		if !cfg.IsDev() {
			logger.WithError(err).Fatal("jwt public key required")
		}
		logger.WithError(err).Warn("jwt public key not loaded; only the dev tenant header is accepted")
	}

	metrics := telemetry.NewFeedMetrics(nil)
	feedChannel := app.GoogleChannel(cfg, factoryRes.Store, metrics, logger)

	routerCfg := handlers.RouterConfig{
		Env:             cfg.Env,
		PublicKey:       pub,
		Store:           factoryRes.Store,
		Feed:            feedChannel,
		EnabledChannels: cfg.EnabledChannels,
		Logger:          logger,
	}
	// a nil *sql.DB must not reach the health check as a non-nil Pinger
	if factoryRes.DB != nil {
		routerCfg.DB = factoryRes.DB
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.Worker.Embedded {
		runner := app.Runner(cfg, factoryRes.Store, metrics, logger.WithField("component", "worker"))
		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("embedded worker stopped")
			}
		}()
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("starting")

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown incomplete")
	}
	logger.Info("shutdown complete")
}
