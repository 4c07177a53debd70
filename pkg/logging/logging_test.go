package logging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/netbox-connector/pkg/logging"
)

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithJob(ctx, "devices")
	ctx = logging.WithResource(ctx, "dcim/devices")
	ctx = logging.WithOperation(ctx, "export")

	logging.FromContext(ctx).Info().Msg("starting")

	testLogger.AssertContains(t, `"job":"devices"`)
	testLogger.AssertContains(t, `"resource":"dcim/devices"`)
	testLogger.AssertContains(t, `"operation":"export"`)
	testLogger.AssertContains(t, "starting")
}

func TestWithError(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	ctx = logging.WithError(ctx, errors.New("connection refused"))
	logging.Ctx(ctx).Warn().Msg("request failed")
	testLogger.AssertContains(t, `"error":"connection refused"`)
}

func TestFromContextDefaults(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
}

func TestWithFields(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"pages":   3,
		"cached":  true,
		"stanza":  "sites",
		"elapsed": 1.5,
	})

	logging.FromContext(ctx).Info().Msg("done")
	testLogger.AssertContains(t, `"pages":3`)
	testLogger.AssertContains(t, `"cached":true`)
	testLogger.AssertContains(t, `"stanza":"sites"`)
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Run("json to file respects level", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "log.json")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "warn",
			Format: "json",
			Output: path,
			Fields: map[string]any{"component": "exporter"},
		})
		t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

		logger.Info().Msg("hidden message")
		logger.Warn().Msg("visible message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(content), "hidden message")
		assert.Contains(t, string(content), "visible message")
		assert.Contains(t, string(content), `"component":"exporter"`)
	})

	t.Run("console format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "log.txt")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:   "info",
			Format:  "console",
			Output:  path,
			NoColor: true,
		})

		logger.Info().Str("key", "value").Msg("console test")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "console test")
		assert.Contains(t, string(content), "INF")
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"":        zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(input), input)
	}
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)
	logging.Info().Msg("via default")
	captured.AssertContains(t, "via default")
	captured.AssertNotContains(t, "never logged")
	assert.Len(t, captured.Lines(), 1)
}
