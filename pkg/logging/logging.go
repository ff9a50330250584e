package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level aliases slog.Level so callers can configure logging without
// importing log/slog themselves.
type Level = slog.Level

// Levels accepted by Config and ParseLevel.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format selects the handler encoding.
type Format string

// Formats accepted by Config and ParseFormat.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config describes a logger. The zero value logs at info level in text
// form to stderr.
type Config struct {
	// Level is the minimum level emitted.
	Level Level

	// Format selects text or JSON encoding.
	Format Format

	// Output receives the log stream. Defaults to os.Stderr.
	Output io.Writer

	// AddSource annotates each record with the file:line that logged it.
	AddSource bool
}

// New builds a slog.Logger from cfg.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}
	if cfg.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Nop returns a logger that discards everything. Engines fall back to
// it when their options carry no logger.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config string to a Level, case-insensitively.
// Empty or unrecognized input means LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat maps a config string to a Format, case-insensitively.
// Anything but "json" means FormatText.
func ParseFormat(s string) Format {
	if strings.ToLower(s) == "json" {
		return FormatJSON
	}
	return FormatText
}
