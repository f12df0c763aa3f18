package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobal(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestSetupLevels(t *testing.T) {
	restoreGlobal(t)

	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{0, zerolog.InfoLevel},
		{1, zerolog.DebugLevel},
		{2, zerolog.TraceLevel},
		{5, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		setup(tt.verbosity, &bytes.Buffer{}, filepath.Join(t.TempDir(), "l.log"))
		assert.Equal(t, tt.want, zerolog.GlobalLevel(), "verbosity %d", tt.verbosity)
	}
}

func TestSetupWritesRunIDToFile(t *testing.T) {
	restoreGlobal(t)

	logFile := filepath.Join(t.TempDir(), "state", "localenv.log")
	var console bytes.Buffer
	runID := setup(0, &console, logFile)

	_, err := uuid.Parse(runID)
	require.NoError(t, err)

	logger := GetLogger("test")
	logger.Info().Msg("hello from test")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), runID)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, console.String(), "hello from test")
}

func TestSetupUnwritableLogFile(t *testing.T) {
	restoreGlobal(t)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	var console bytes.Buffer
	setup(0, &console, filepath.Join(blocker, "sub", "localenv.log"))
	assert.Contains(t, console.String(), "failed to open log file")
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	restoreGlobal(t)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	done := LogOperationStart(logger, "plan")
	done()
	assert.Contains(t, buf.String(), "operation started")
	assert.Contains(t, buf.String(), "operation completed")
}

func TestLogFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("localenv", "localenv.log"), filepath.Join(filepath.Base(filepath.Dir(LogFilePath())), filepath.Base(LogFilePath())))
}
