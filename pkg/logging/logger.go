// Package logging sets up reconcheck's zerolog logger.
//
// Logs always go to a separate writer (stderr for the CLI) so stdout stays
// free for progress lines and run summaries. Every line carries app=reconcheck
// and, through NewLogger, the component that wrote it.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as accepted by LOG_LEVEL and --log-level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Values of the "component" field.
const (
	ComponentBatch   = "batch"
	ComponentClient  = "http-client"
	ComponentProbe   = "probe"
	ComponentReport  = "report"
	ComponentCSVTool = "csvtool"
	ComponentCLI     = "cli"
)

const appName = "reconcheck"

// levels maps accepted names to zerolog levels. "warning" is kept as an
// alias because existing .env files use it.
var levels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// Setup installs the global logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	log.Logger = zerolog.New(out).With().Timestamp().Str("app", appName).Logger()
	return log.Logger
}

// parseLevel falls back to info for unknown names.
func parseLevel(level LogLevel) zerolog.Level {
	if l, ok := levels[strings.ToLower(string(level))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// IsValidLevel reports whether s names a supported level.
func IsValidLevel(s string) bool {
	_, ok := levels[strings.ToLower(s)]
	return ok
}

// NewLogger returns a child of the global logger tagged with component.
// Call it after Setup; the child does not follow later Setup calls.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// What goes where:
//
//	debug  per-request transport failures, files written, resolved config
//	info   one "Processed" line per key, batch start and completion,
//	       proxy configured, output directory created, chunk progress
//	warn   empty inputs, metrics textfile not written
//	error  startup failures (missing token, unreachable proxy, unreadable input)
//
// Common fields besides component: endpoint, key, status, run_id, error_class.
