package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogConfig(t *testing.T) {
	tests := []struct {
		name                  string
		appEnv, level, format string
		wantLevel             slog.Level
		wantFormat            LogFormat
		wantSource            bool
	}{
		{name: "development defaults", appEnv: "development", wantLevel: slog.LevelInfo, wantFormat: LogFormatText},
		{name: "production defaults", appEnv: "production", wantLevel: slog.LevelInfo, wantFormat: LogFormatJSON, wantSource: true},
		{name: "explicit overrides", appEnv: "production", level: "DEBUG", format: "Text", wantLevel: slog.LevelDebug, wantFormat: LogFormatText, wantSource: true},
		{name: "warn level", level: "warn", wantLevel: slog.LevelWarn, wantFormat: LogFormatText},
		{name: "unknown level", level: "loud", wantLevel: slog.LevelInfo, wantFormat: LogFormatText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewLogConfig(tt.appEnv, tt.level, tt.format, "1.2.0")
			assert.Equal(t, tt.wantLevel, cfg.Level)
			assert.Equal(t, tt.wantFormat, cfg.Format)
			assert.Equal(t, tt.wantSource, cfg.AddSource)
			assert.Equal(t, "layoutrack", cfg.Service)
			assert.Equal(t, "1.2.0", cfg.Version)
		})
	}
	assert.Equal(t, os.Stdout, NewLogConfig("production", "", "", "").Output)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: slog.LevelInfo, Format: LogFormatJSON, Output: &buf, Service: "layoutrack", Version: "1.2.0"})

	ctx := WithActor(WithRequestID(WithCorrelationID(context.Background(), "corr-1"), "req-1"), "alice")
	logger.With("project", "P1").InfoContext(ctx, "layouts submitted", "saved", 2)
	logger.DebugContext(ctx, "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "layouts submitted", entry["msg"])
	assert.Equal(t, "layoutrack", entry["service"])
	assert.Equal(t, "1.2.0", entry["version"])
	assert.Equal(t, "P1", entry["project"])
	assert.EqualValues(t, 2, entry["saved"])
	assert.Equal(t, "corr-1", entry[CorrelationIDKey])
	assert.Equal(t, "req-1", entry[RequestIDKey])
	assert.Equal(t, "alice", entry[ActorKey])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: slog.LevelWarn, Output: &buf})

	logger.Info("info message")
	logger.WithGroup("weight").Warn("weight rejected", "value", 1.5)

	out := buf.String()
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "weight rejected")
	assert.Contains(t, out, "weight.value=1.5")
	assert.NotContains(t, out, CorrelationIDKey)
}
