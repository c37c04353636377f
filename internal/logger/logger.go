package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. It discards output until Configure runs,
// since the TUI owns the terminal.
var Logger = zerolog.Nop()

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

func parseLevel(level LogLevel) zerolog.Level {
	switch LogLevel(strings.ToLower(string(level))) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Configure points the global logger at w with the given level. console selects
// the human-readable writer.
func Configure(w io.Writer, level LogLevel, console bool) {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
	log.Logger = Logger
}

// OpenFile configures logging into an append-only file and returns it for closing.
func OpenFile(path string, level LogLevel) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	Configure(f, level, false)
	return f, nil
}

// LevelFromEnv lets DEBUG=1 override the configured level.
func LevelFromEnv(configured string) LogLevel {
	debug := strings.ToLower(os.Getenv("DEBUG"))
	if debug == "true" || debug == "1" {
		return LevelDebug
	}
	if configured == "" {
		return LevelInfo
	}
	return LogLevel(configured)
}

// With returns a child logger carrying one field.
func With(key string, value interface{}) zerolog.Logger {
	return Logger.With().Interface(key, value).Logger()
}
