package adapter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SetupLogger opens the configured log file and returns a JSON logger
// writing to it, with a function that closes the file. An empty path
// discards all output.
func SetupLogger(cfg *LoggingConfig) (*slog.Logger, func() error, error) {
	if cfg.File == "" {
		return NullLogger(), func() error { return nil }, nil
	}

	logPath := expandHome(cfg.File)
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return newJSONLogger(logFile, cfg.Level), logFile.Close, nil
}

func newJSONLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

// parseLogLevel converts a level name to slog.Level, defaulting to INFO
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
