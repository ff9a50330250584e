package record

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterConfig defines the capture filter: include/exclude glob
// patterns plus an optional boolean condition expression.
type FilterConfig struct {
	// IncludeHosts records only exchanges with these hosts (empty = all).
	IncludeHosts []string `json:"includeHosts,omitempty" yaml:"includeHosts,omitempty"`
	// ExcludeHosts never records exchanges with these hosts.
	ExcludeHosts []string `json:"excludeHosts,omitempty" yaml:"excludeHosts,omitempty"`
	// IncludePaths records only if the path matches (empty = all).
	// Supports ** for multi-segment matching.
	IncludePaths []string `json:"includePaths,omitempty" yaml:"includePaths,omitempty"`
	// ExcludePaths never records if the path matches.
	ExcludePaths []string `json:"excludePaths,omitempty" yaml:"excludePaths,omitempty"`
	// Condition is an optional boolean expression over
	// {method, host, path, status}, e.g. `status < 500 && method != "OPTIONS"`.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Empty reports whether the config filters nothing.
func (c FilterConfig) Empty() bool {
	return len(c.IncludeHosts) == 0 && len(c.ExcludeHosts) == 0 &&
		len(c.IncludePaths) == 0 && len(c.ExcludePaths) == 0 &&
		c.Condition == ""
}

// conditionEnv is the prototype environment condition expressions are
// compiled against.
func conditionEnv(method, host, path string, status int) map[string]interface{} {
	return map[string]interface{}{
		"method": method,
		"host":   host,
		"path":   path,
		"status": status,
	}
}

// Filter decides which exchanges are captured. Construct with
// NewFilter; the condition expression is compiled once at construction.
type Filter struct {
	includeHosts []string
	excludeHosts []string
	includePaths []string
	excludePaths []string
	program      *vm.Program
}

// NewFilter validates the glob patterns, compiles the condition
// expression if present, and returns the ready filter.
func NewFilter(cfg FilterConfig) (*Filter, error) {
	for _, pattern := range cfg.IncludeHosts {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include host pattern %q", pattern)
		}
	}
	for _, pattern := range cfg.ExcludeHosts {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude host pattern %q", pattern)
		}
	}
	for _, pattern := range cfg.IncludePaths {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include path pattern %q", pattern)
		}
	}
	for _, pattern := range cfg.ExcludePaths {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude path pattern %q", pattern)
		}
	}

	f := &Filter{
		includeHosts: lowerAll(cfg.IncludeHosts),
		excludeHosts: lowerAll(cfg.ExcludeHosts),
		includePaths: cfg.IncludePaths,
		excludePaths: cfg.ExcludePaths,
	}

	if cfg.Condition != "" {
		program, err := expr.Compile(cfg.Condition,
			expr.Env(conditionEnv("", "", "", 0)),
			expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid filter condition %q: %w", cfg.Condition, err)
		}
		f.program = program
	}

	return f, nil
}

// ShouldRecord determines if an exchange should be captured.
// Precedence:
//  1. If the host or path matches ANY exclude pattern → not captured
//  2. If include patterns exist AND none match → not captured
//  3. If a condition is configured and evaluates false (or errors) →
//     not captured
//  4. Otherwise → captured
//
// Host matching is case-insensitive; path matching is case-sensitive.
func (f *Filter) ShouldRecord(method, host, path string, status int) bool {
	host = strings.ToLower(host)

	for _, pattern := range f.excludeHosts {
		if matchGlob(pattern, host) {
			return false
		}
	}
	for _, pattern := range f.excludePaths {
		if matchGlob(pattern, path) {
			return false
		}
	}

	if len(f.includeHosts) > 0 {
		matched := false
		for _, pattern := range f.includeHosts {
			if matchGlob(pattern, host) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(f.includePaths) > 0 {
		matched := false
		for _, pattern := range f.includePaths {
			if matchGlob(pattern, path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.program != nil {
		out, err := expr.Run(f.program, conditionEnv(method, host, path, status))
		if err != nil {
			return false
		}
		keep, ok := out.(bool)
		return ok && keep
	}

	return true
}

// matchGlob matches a doublestar glob pattern against a string.
// Invalid patterns were rejected at construction, so errors here mean
// no match.
func matchGlob(pattern, s string) bool {
	ok, err := doublestar.Match(pattern, s)
	return err == nil && ok
}

func lowerAll(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ToLower(p)
	}
	return out
}
