// Package telemetry holds the Prometheus metrics of the feed services.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalogfeed"

type FeedMetrics struct {
	ItemsBuilt    *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	RunsProcessed *prometheus.CounterVec
}

// NewFeedMetrics registers the metrics on reg, or on the default registry
// when reg is nil.
func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &FeedMetrics{
		ItemsBuilt: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_items_built_total",
				Help:      "Feed item builds by channel and outcome",
			},
			[]string{"channel", "status"},
		),
		BuildDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "feed_item_build_seconds",
				Help:      "Time to build one feed item",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"channel"},
		),
		RunsProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_processed_total",
				Help:      "Runs executed by the worker, by final status",
			},
			[]string{"status"},
		),
	}
}

// ObserveBuild is safe on a nil receiver.
func (m *FeedMetrics) ObserveBuild(channel, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ItemsBuilt.WithLabelValues(channel, status).Inc()
	m.BuildDuration.WithLabelValues(channel).Observe(elapsed.Seconds())
}

func (m *FeedMetrics) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.RunsProcessed.WithLabelValues(status).Inc()
}
