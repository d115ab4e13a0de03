package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSetup_FiltersByLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, slog.LevelWarn)

	slog.Info("move committed", "item_id", "deal-1")
	slog.Warn("move not saved", "item_id", "deal-2")

	out := buf.String()
	assert.NotContains(t, out, "deal-1")
	assert.Contains(t, out, "item_id=deal-2")
}

func TestInit_CreatesLogFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "crmboard.log")
	closer, err := Init(path, "debug")
	require.NoError(t, err)

	slog.Debug("board loaded", "board_id", "pipeline")
	require.NoError(t, closer.Close())
	// Point the std logger away from the closed file
	Setup(os.Stderr, slog.LevelInfo)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "board_id=pipeline"))
}
