package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/OpenRadar/awacs/internal/dispatcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ dispatcher.Logger = (*DispatcherLogger)(nil)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*DispatcherLogger)
	}{
		{"DEBUG", func(l *DispatcherLogger) { l.Debug("handling event", "command", ":TIME:", "simTime", 12.5) }},
		{"INFO", func(l *DispatcherLogger) { l.Info("handling event", "command", ":TIME:", "simTime", 12.5) }},
		{"ERROR", func(l *DispatcherLogger) { l.Error("handling event", "command", ":TIME:", "simTime", 12.5) }},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewDispatcherLogger(jsonLogger(&buf)))

			entry := lastEntry(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "handling event", entry["msg"])
			assert.Equal(t, "dispatcher", entry["component"])
			assert.Equal(t, ":TIME:", entry["command"])
			assert.Equal(t, 12.5, entry["simTime"])
		})
	}
}

func TestDispatcherLogger_DropsMalformedPairs(t *testing.T) {
	var buf bytes.Buffer
	NewDispatcherLogger(jsonLogger(&buf)).Error("buffered event failed", 7, "ignored", "command", ":ALERT:", "dangling")

	entry := lastEntry(t, &buf)
	assert.Equal(t, ":ALERT:", entry["command"])
	assert.NotContains(t, entry, "dangling")
	assert.NotContains(t, entry, "!BADKEY")
}

func TestDispatcherLogger_NoKeyValues(t *testing.T) {
	var buf bytes.Buffer
	NewDispatcherLogger(jsonLogger(&buf)).Info("dispatcher closed")
	assert.Equal(t, "dispatcher closed", lastEntry(t, &buf)["msg"])
}

func TestDispatcherLogger_NilFallsBackToDefault(t *testing.T) {
	assert.NotNil(t, NewDispatcherLogger(nil))
}
