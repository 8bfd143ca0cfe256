package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "codescope.log")

	logger, cleanup, err := Setup(Config{
		Level:         "info",
		FilePath:      path,
		WriteToStderr: false,
	})
	require.NoError(t, err)

	logger.Info("search complete", slog.Int("results", 3))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "search complete", entry["msg"])
	assert.Equal(t, float64(3), entry["results"])
}

func TestSetup_DebugLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codescope.log")

	logger, cleanup, err := Setup(Config{
		Level:         "warn",
		FilePath:      path,
		WriteToStderr: false,
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Warn("visible")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}
