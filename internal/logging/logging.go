// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global logger for the given verbosity
// (0 info, 1 debug, 2 or more trace). Output goes to stderr and to the log
// file under the XDG state directory. Every record carries the run id.
// It returns the run id.
func SetupLogger(verbosity int) string {
	return setup(verbosity, os.Stderr, LogFilePath())
}

func setup(verbosity int, console io.Writer, logFile string) string {
	switch {
	case verbosity <= 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case verbosity == 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}}

	fileHandle, err := openLogFile(logFile)
	if err == nil {
		writers = append(writers, fileHandle)
	}

	runID := uuid.NewString()
	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Str("run_id", runID)
	if verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	if err != nil {
		log.Warn().Err(err).Str("path", logFile).Msg("failed to open log file, logging to console only")
	}
	log.Debug().Int("verbosity", verbosity).Str("log_file", logFile).Msg("logger initialized")
	return runID
}

// GetLogger returns the global logger tagged with a component name.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogFilePath is $XDG_STATE_HOME/localenv/localenv.log.
func LogFilePath() string {
	return filepath.Join(xdg.StateHome, "localenv", "localenv.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// LogOperationStart logs the start of an operation and returns a function
// that logs its completion with the elapsed time.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("operation started")
	return func() {
		logger.Debug().Str("operation", operation).Dur("duration", time.Since(start)).Msg("operation completed")
	}
}
