package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	logger, err := NewLogger(LoggerConfig{Level: "warn", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	logger, runID := WithRunID(logger)
	logger.Info("dropped below level")
	logger.Warn("vendor lookup failed")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "vendor lookup failed", entry["msg"])
	assert.Equal(t, runID, entry["run_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "loud", OutputPath: "stderr"})
	require.NoError(t, err)

	assert.True(t, logger.Core().Enabled(0))
	assert.False(t, logger.Core().Enabled(-1))
}

func TestWithRunID_Unique(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "info"})
	require.NoError(t, err)

	_, a := WithRunID(logger)
	_, b := WithRunID(logger)

	assert.NotEqual(t, a, b)
	_, err = uuid.Parse(a)
	assert.NoError(t, err)
}
