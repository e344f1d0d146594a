package observability_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/makavia/internal/config"
	"github.com/cory-johannsen/makavia/internal/observability"
)

func TestNewLoggerTo_JSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	logger, err := observability.NewLoggerTo(config.LoggingConfig{Level: "info", Format: "json"}, "gameserver", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("player connected", zap.String("session", "s-1"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "exactly one JSON line: %s", buf.String())
	assert.Equal(t, "player connected", entry["msg"])
	assert.Equal(t, "gameserver", entry["service"])
	assert.Equal(t, "s-1", entry["session"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewLoggerTo_ConsoleDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := observability.NewLoggerTo(config.LoggingConfig{Level: "debug", Format: "console"}, "migrate", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("dice rolled", zap.Int("roll", 17))
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "dice rolled")
	assert.Contains(t, buf.String(), `"service": "migrate"`)
}

func TestNewLogger_Rejects(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "trace", Format: "json"}, "x")
	assert.ErrorContains(t, err, `parsing log level "trace"`)

	_, err = observability.NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, "x")
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := observability.NewLogger(config.LoggingConfig{Level: level, Format: "json"}, "gameserver")
		require.NoError(t, err, "level %q", level)
		assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
	}
}
