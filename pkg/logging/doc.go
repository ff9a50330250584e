// Package logging configures the structured logging used across
// replayd.
//
// It is a thin layer over log/slog: Config picks the level, encoding
// and destination, New builds the logger, and ParseLevel/ParseFormat
// translate the strings that arrive from config files and CLI flags.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.Level),
//	    Format: logging.ParseFormat(cfg.Format),
//	})
//
// Engine packages accept a *slog.Logger in their option structs and
// substitute Nop when none is given, so library callers pay nothing
// for logging they did not ask for. The conventions they follow:
// per-request outcomes (captured, replayed) log at debug, unmatched
// requests and flush problems at warn.
//
// NewFanoutHandler duplicates records across handlers; the server
// commands use it to tee their stderr stream into a JSON log file.
package logging
