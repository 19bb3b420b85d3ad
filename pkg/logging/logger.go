// Package logging configures the global zerolog logger and hands out
// component-scoped loggers.
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

// Component names attached to log lines as the "component" field.
const (
	ComponentCatalog    = "catalog-client"
	ComponentCache      = "search-cache"
	ComponentCollector  = "collector"
	ComponentMongoStore = "mongostore"
	ComponentRedisStore = "redisstore"
	ComponentCLI        = "tunecore-sync"
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

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	output := cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names yield
// info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
// Debug: per-request and per-page detail
//   - Catalog request URLs
//   - Pages received by the collector
//   - Search cache hits
//
// Info: run milestones
//   - Collection planned (total, per_page, total_pages)
//   - Batch saved (records_in_batch)
//   - Fetch progress every 50 pages
//   - Collection complete
//
// Warn: conditions that do not stop the run
//   - Empty first page
//   - Search cache errors (fallback to the API)
//   - Individual page fetch failures before the run aborts
//
// Error: the run stops
//   - Transport, decode or persistence failures
//   - Configuration errors
//
// Context Fields:
//   - page, total_pages, per_page, total: pagination state
//   - records_in_batch, records_upserted, flushes: persistence progress
//   - status, error_class: catalog request failures
//   - duration: elapsed time
