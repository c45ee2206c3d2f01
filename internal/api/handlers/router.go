package handlers

import (
	"crypto/rsa"
	"net/http"

	"github.com/ETAnderson/catalogfeed/internal/api/middleware"
	"github.com/ETAnderson/catalogfeed/internal/ingest"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Env       string
	PublicKey *rsa.PublicKey

	Store           state.Store
	Feed            FeedBuilder
	EnabledChannels []string

	DB       Pinger
	Gatherer prometheus.Gatherer
	Logger   logrus.FieldLogger
}

// NewRouter mounts the tenant API under /v1/ behind tenant resolution,
// bearer auth and idempotency. /healthz and /metrics are unauthenticated.
func NewRouter(cfg RouterConfig) http.Handler {
	api := http.NewServeMux()

	api.Handle("POST /v1/products:upsert", ProductsUpsertHandler{
		Processor:       ingest.NewProcessor(),
		Store:           cfg.Store,
		EnabledChannels: cfg.EnabledChannels,
		Logger:          cfg.Logger,
	})
	api.Handle("GET /v1/feed/items/{id}", FeedItemHandler{Builder: cfg.Feed})
	api.Handle("POST /v1/feed:build", FeedBuildHandler{Builder: cfg.Feed})
	api.Handle("POST /v1/feed:rebuild", FeedRebuildHandler{Store: cfg.Store, Logger: cfg.Logger})
	api.Handle("GET /v1/runs", RunsHandler{Store: cfg.Store})
	api.Handle("GET /v1/runs/{run_id}", RunDetailHandler{Store: cfg.Store})
	api.Handle("GET /v1/runs/{run_id}/channels", RunChannelsHandler{Store: cfg.Store})
	api.Handle("GET /v1/runs/{run_id}/channels/{channel}", RunChannelItemsHandler{Store: cfg.Store})

	var v1 http.Handler = api
	v1 = middleware.RequestLogger{Logger: cfg.Logger, Next: v1}
	v1 = middleware.IdempotencyMiddleware{Store: cfg.Store, Next: v1}
	v1 = middleware.AuthMiddleware{Env: cfg.Env, PublicKey: cfg.PublicKey, Next: v1}
	v1 = middleware.TenantMiddleware{Env: cfg.Env, Next: v1}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", HealthHandler{DB: cfg.DB})
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/v1/", v1)
	return mux
}
