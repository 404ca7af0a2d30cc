package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/armory/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)

	logging.Debug().Msg("debug message")
	logging.Info().Str("partition", "alpha").Msg("info message")
	logging.Warn().Msg("warning message")
	logging.Err(errors.New("boom")).Msg("error message")

	assert.Equal(t, 4, captured.Count())
	assert.True(t, captured.ContainsAll("debug message", "info message", `"partition":"alpha"`, "boom"))
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRun(ctx, "run-1")
	ctx = logging.WithPartition(ctx, "alpha")
	ctx = logging.WithTable(ctx, "alpha_normalized")
	ctx = logging.WithOperation(ctx, "transform")

	logging.FromContext(ctx).Info().Msg("partition normalized")

	testLogger.AssertContains(t, `"run_id":"run-1"`)
	testLogger.AssertContains(t, `"partition":"alpha"`)
	testLogger.AssertContains(t, `"table":"alpha_normalized"`)
	testLogger.AssertContains(t, `"operation":"transform"`)
	assert.Equal(t, "run-1", logging.RunID(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Same(t, logging.Default(), logging.Ctx(context.Background()))
	assert.Empty(t, logging.RunID(context.Background()))
}

func TestWithFieldsAndError(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	ctx = logging.WithFields(ctx, map[string]any{
		"rows":    12,
		"summary": true,
		"tables":  []string{"gdud", "all_normalized"},
	})
	ctx = logging.WithError(ctx, errors.New("source missing"))
	logging.Ctx(ctx).Warn().Msg("compare aborted")

	testLogger.AssertContains(t, `"rows":12`)
	testLogger.AssertContains(t, `"summary":true`)
	testLogger.AssertContains(t, `"tables":["gdud","all_normalized"]`)
	testLogger.AssertContains(t, `"error":"source missing"`)
}

func TestNewLoggerFromConfig(t *testing.T) {
	original := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(originalLevel)
	})

	path := filepath.Join(t.TempDir(), "armory.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
		Fields: map[string]any{"service": "armory"},
	})
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "shown")
	assert.Contains(t, string(content), `"service":"armory"`)
	assert.NotContains(t, string(content), "hidden")
}

func TestConfigure(t *testing.T) {
	original := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(originalLevel)
	})

	logging.Configure(&logging.Config{Level: "error", Format: "json", Output: "discard"})
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())

	logging.Configure(&logging.Config{Level: "warning", Output: "discard"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	logging.Configure(&logging.Config{Level: "nonsense", Output: "discard"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "stdout")
	t.Setenv("LOG_FIELDS", "site=north, shift = night,broken")

	cfg := logging.ConfigFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, map[string]any{"site": "north", "shift": "night"}, cfg.Fields)
}

func TestNewWritesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(buf)
	logger.Error().Msg("json line")
	assert.Contains(t, buf.String(), `"message":"json line"`)
}

func TestDisableLoggingForTest(t *testing.T) {
	logging.DisableLoggingForTest(t)
	logging.Error().Msg("nowhere")
	assert.Equal(t, zerolog.Disabled, logging.Default().GetLevel())
}
