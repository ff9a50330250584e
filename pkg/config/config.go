package config

import (
	"fmt"
	"net/url"

	"github.com/getmockd/replayd/pkg/record"
	"github.com/getmockd/replayd/pkg/replay"
	"github.com/getmockd/replayd/pkg/session"
)

// Config is the replayd.yaml file surface.
type Config struct {
	// Listen is the address the record proxy or playback server binds to.
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
	// Mode selects passthrough, record, playback, or auto.
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
	// Cassette is the recording file path (.json, .yaml, or .yml).
	Cassette string `json:"cassette,omitempty" yaml:"cassette,omitempty"`
	// Target is the upstream the record proxy forwards to, and the
	// fallback destination for server-side playback.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	// Policy decides what playback does with unmatched requests:
	// exception, null, or fallback.
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`
	// IgnoreHeaders lists header names excluded from playback
	// comparison, on top of the built-in defaults. The sentinel "all"
	// disables header comparison entirely.
	IgnoreHeaders []string `json:"ignoreHeaders,omitempty" yaml:"ignoreHeaders,omitempty"`
	// IgnoreBody excludes bodies from playback comparison.
	IgnoreBody bool `json:"ignoreBody,omitempty" yaml:"ignoreBody,omitempty"`
	// Filter restricts which exchanges record mode captures.
	Filter record.FilterConfig `json:"filter,omitempty" yaml:"filter,omitempty"`
	// Redact lists header names scrubbed from captured transactions.
	Redact []string `json:"redact,omitempty" yaml:"redact,omitempty"`
	// MaxBodySize caps captured body sizes in bytes. Default: 10MB.
	MaxBodySize int64 `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	// Log configures diagnostic logging.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`
}

// LogConfig configures the logger the CLI builds for its session.
type LogConfig struct {
	// Level is debug, info, warn, or error. Default: info.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is text or json. Default: text.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// File tees logs to a file in addition to stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Default returns a Config with the defaults applied on load.
func Default() *Config {
	return &Config{
		Listen:      ":8080",
		Mode:        string(session.ModePassthrough),
		Policy:      string(replay.PolicyException),
		MaxBodySize: record.DefaultMaxBodySize,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration, reporting the first problem with
// its field path.
func (c *Config) Validate() error {
	mode, err := session.ParseMode(c.Mode)
	if err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if _, err := replay.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if (mode == session.ModeRecord || mode == session.ModePlayback) && c.Cassette == "" {
		return fmt.Errorf("cassette: required for %s mode", mode)
	}
	if c.Target != "" {
		u, err := url.Parse(c.Target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("target: invalid url %q", c.Target)
		}
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("maxBodySize: must not be negative, got %d", c.MaxBodySize)
	}
	if _, err := record.NewFilter(c.Filter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if err := c.Log.validate(); err != nil {
		return err
	}
	return nil
}

func (l LogConfig) validate() error {
	switch l.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", l.Level)
	}
	switch l.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", l.Format)
	}
	return nil
}
