package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Level  string
	Format string
	Output string
}

func Setup(cfg Config) error {
	// Set log level
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = os.Stdout
	if cfg.Output != "" && cfg.Output != "stdout" {
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		output = file
	}

	// Configure format
	if strings.ToLower(cfg.Format) == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	}

	// Set global logger
	log.Logger = zerolog.New(output).With().
		Timestamp().
		Caller().
		Logger()

	log.Info().
		Str("level", level.String()).
		Str("format", cfg.Format).
		Str("output", cfg.Output).
		Msg("Logger initialized")

	return nil
}

// DatabaseLogger creates a logger for low-level bun/pgdriver operations.
func DatabaseLogger(operation string) zerolog.Logger {
	return log.With().
		Str("component", "database").
		Str("operation", operation).
		Logger()
}

// StoreLogger creates a logger for store-session operations (open/close,
// flush, commit), one level above the raw database connection.
func StoreLogger(operation string) zerolog.Logger {
	return log.With().
		Str("component", "store").
		Str("operation", operation).
		Logger()
}

// MatcherLogger creates a logger for product-matcher operations: candidate
// enumeration, duplicate filtering, uniqueness-map maintenance.
func MatcherLogger(operation string) zerolog.Logger {
	return log.With().
		Str("component", "matcher").
		Str("operation", operation).
		Logger()
}

// InventoryLogger creates a logger for inventory operations: sharding,
// three-way merge, file/store reconciliation.
func InventoryLogger(operation string) zerolog.Logger {
	return log.With().
		Str("component", "inventory").
		Str("operation", operation).
		Logger()
}

// ReaderLogger creates a logger for file reader/writer operations, used to
// report a skipped malformed shard without aborting the whole read.
func ReaderLogger(path string) zerolog.Logger {
	return log.With().
		Str("component", "reader").
		Str("path", path).
		Logger()
}
