// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Bucket operations (hit/miss, bucket, key)
//   - Strategy selection per request
//   - Guard decisions (navigation type, flags)
//
// Info: Normal operation events
//   - Install/activate transitions and dropped buckets
//   - Control commands handled (skip-waiting, clear-cache)
//   - Sweeper removals
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Store write failures (response still served)
//   - Background refresh failures
//   - Pre-cache asset failures during install
//
// Error: Error conditions requiring attention
//   - Origin unreachable for network-only requests
//   - Storage backend unavailable
//   - Configuration errors
//
// Context Fields:
//   - url: request path being served
//   - strategy: caching strategy applied (bypass, network_only, cache_first, network_first)
//   - bucket: bucket name touched
//   - status_code: HTTP status code
//   - duration: request duration
//   - version: cache namespace version
//   - navigation: navigation timing type seen by the guard
