// Package cli implements the replayd command-line interface.
//
// Commands follow two conventions: single commands are plain
// flag.FlagSet functions named RunX, invoked by the registry in
// cmd/replayd; the cassette inspection family is a cobra command tree
// behind RunCassette.
package cli

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/getmockd/replayd/pkg/config"
	"github.com/getmockd/replayd/pkg/logging"
)

// Config files discovered in the working directory when --config is
// not given.
var defaultConfigFiles = []string{"replayd.yaml", "replayd.yml"}

// loadConfig resolves the effective configuration. An explicit path is
// loaded strictly; otherwise replayd.yaml in the working directory is
// used when present, falling back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		return cfg, nil
	}
	for _, candidate := range defaultConfigFiles {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		cfg, err := config.Load(candidate)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", candidate, err)
		}
		return cfg, nil
	}
	return config.Default(), nil
}

// newLogger builds the logger for a server command, teeing to a file
// when the config asks for one. The returned func closes the file and
// must be called on every exit path.
func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	level := logging.ParseLevel(cfg.Level)
	base := logging.New(logging.Config{
		Level:  level,
		Format: logging.ParseFormat(cfg.Format),
	})
	if cfg.File == "" {
		return base, func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
	}
	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	log := slog.New(logging.NewFanoutHandler(base.Handler(), fileHandler))
	return log, func() { _ = f.Close() }, nil
}

// flagsSeen reports which flags were explicitly set on the command
// line, so they can override config file values.
func flagsSeen(fs *flag.FlagSet) map[string]bool {
	seen := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	return seen
}

// stringSliceFlag implements flag.Value for accumulating multiple string values.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}
