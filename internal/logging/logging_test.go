package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "api", "prod", "debug")

	log.WithField("run_id", "run_1").Debug("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "run_1", entry["run_id"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestNew_TextInDevAndLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "worker", "dev", "nonsense")

	assert.Equal(t, logrus.InfoLevel, log.Logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Logger.Formatter)

	log.Debug("dropped")
	assert.Empty(t, buf.String())

	log.Info("kept")
	assert.Contains(t, buf.String(), "service=worker")
}
