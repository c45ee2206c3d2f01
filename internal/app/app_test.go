package app

import (
	"context"
	"testing"

	"github.com/ETAnderson/catalogfeed/internal/config"
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/ETAnderson/catalogfeed/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("ENV", "dev")
	t.Setenv("STATE_BACKEND", "memory")
	t.Setenv("IMAGE_BASE_URL", "https://cdn.example.com/media")

	cfg, err := config.Parse()
	require.NoError(t, err)
	return cfg
}

func TestOpenStore_Memory(t *testing.T) {
	res, err := OpenStore(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.NotNil(t, res.Store)
	assert.Nil(t, res.DB)
}

func TestGoogleChannel_BuildsFromSettings(t *testing.T) {
	cfg := testConfig(t)
	st := state.NewMemoryStore()
	metrics := telemetry.NewFeedMetrics(prometheus.NewRegistry())

	p := domain.Product{
		ID:           7,
		Kind:         domain.KindSimple,
		Status:       domain.StatusPublish,
		Title:        "Tea towel",
		Permalink:    "https://shop.example.com/p/towel",
		StockStatus:  domain.StockInStock,
		Visible:      true,
		RegularPrice: "8.50",
		Price:        "8.50",
		ImageRef:     "towel.jpg",
	}
	require.NoError(t, state.PutProduct(context.Background(), st, 1, p, "h"))

	ch := GoogleChannel(cfg, st, metrics, logrus.New())
	item, err := ch.BuildItem(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.Equal(t, "7", item.OfferID)
	assert.Equal(t, "US", item.TargetCountry)
	assert.Equal(t, "https://cdn.example.com/media/towel.jpg", item.ImageLink)
	require.NotNil(t, item.Price)
	assert.Equal(t, "8.50", item.Price.Value)
}

func TestRunner_UsesWorkerSettings(t *testing.T) {
	cfg := testConfig(t)
	r := Runner(cfg, state.NewMemoryStore(), nil, logrus.New())

	assert.Equal(t, cfg.Worker.PollEvery, r.PollEvery)
	assert.Equal(t, cfg.Worker.MaxPerClaim, r.MaxPerClaim)
	assert.NotNil(t, r.Executor)
	assert.Nil(t, r.Observer)
}
