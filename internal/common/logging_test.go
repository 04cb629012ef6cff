package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFromConfig_FileOutputIsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tradebook.log")

	logger := NewLoggerFromConfig(LoggingConfig{
		Level:    "info",
		Format:   "json",
		Outputs:  []string{"file"},
		FilePath: path,
	})
	logger.Info().Str("instrument", "RELIANCE").Msg("Order applied")

	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Close(), "second close is a no-op")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"instrument":"RELIANCE"`)
}

func TestLoggerClose_WithoutFile(t *testing.T) {
	assert.NoError(t, NewSilentLogger().Close())
	assert.NoError(t, NewLogger("debug").Close())

	var nilLogger *Logger
	assert.NoError(t, nilLogger.Close())
}
