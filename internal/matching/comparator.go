package matching

import (
	"fmt"
	"strings"

	"github.com/getmockd/replayd/pkg/cassette"
)

// IgnoreAllHeaders is the sentinel value that, when present in
// Options.IgnoreHeaders, disables header comparison entirely.
const IgnoreAllHeaders = "all"

// DefaultIgnoredHeaders are the header names the owning engine merges
// into the ignore set by default. They vary between otherwise identical
// requests (connection management, client identity) and would make
// replays brittle.
var DefaultIgnoredHeaders = []string{"Connection", "Host", "Content-Length", "User-Agent"}

// Options configures which request dimensions are excluded from
// comparison.
type Options struct {
	// IgnoreHeaders lists header names to skip, case-insensitively.
	// The sentinel "all" skips header comparison entirely.
	IgnoreHeaders []string

	// IgnoreBody disables body comparison.
	IgnoreBody bool

	// IgnoreHost restricts URL comparison to path and query. Set by
	// server-side playback, where the inbound request targets the
	// playback server rather than the recorded origin.
	IgnoreHost bool
}

// WithDefaultIgnores returns a copy of the options with
// DefaultIgnoredHeaders merged into the ignore set.
func (o Options) WithDefaultIgnores() Options {
	merged := make([]string, 0, len(DefaultIgnoredHeaders)+len(o.IgnoreHeaders))
	merged = append(merged, DefaultIgnoredHeaders...)
	merged = append(merged, o.IgnoreHeaders...)
	o.IgnoreHeaders = merged
	return o
}

// IgnoresAllHeaders reports whether the sentinel "all" is present in
// the ignore set.
func (o Options) IgnoresAllHeaders() bool {
	for _, name := range o.IgnoreHeaders {
		if strings.EqualFold(name, IgnoreAllHeaders) {
			return true
		}
	}
	return false
}

// Result is the outcome of comparing an incoming request against a
// recorded one. On mismatch, Field names the dimension that differed
// and Reason carries a human-readable explanation of the conflict.
type Result struct {
	Matched bool   `json:"matched"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// match is the successful comparison result.
func match() Result {
	return Result{Matched: true}
}

// mismatch builds a failed comparison result for a dimension.
func mismatch(field, reason string) Result {
	return Result{Matched: false, Field: field, Reason: reason}
}

// compareMethod checks HTTP method equality.
func compareMethod(incoming, recorded string) Result {
	if incoming != recorded {
		return mismatch("method", fmt.Sprintf("method expected %q, got %q", recorded, incoming))
	}
	return match()
}

// Compare decides whether an incoming request is equivalent to a
// recorded one under the given options. It checks method, URL, headers,
// and body in order, short-circuiting on the first mismatch found; it
// does not report all mismatches simultaneously.
func Compare(incoming, recorded *cassette.RecordedRequest, opts Options) Result {
	if r := compareMethod(incoming.Method, recorded.Method); !r.Matched {
		return r
	}

	urlCompare := compareURL
	if opts.IgnoreHost {
		urlCompare = comparePathQuery
	}
	if r := urlCompare(incoming.URL, recorded.URL); !r.Matched {
		return r
	}

	if !opts.IgnoresAllHeaders() {
		if r := compareHeaders(incoming.Headers, recorded.Headers, opts.IgnoreHeaders); !r.Matched {
			return r
		}
	}

	if !opts.IgnoreBody {
		if r := compareBody(incoming.Body, recorded.Body); !r.Matched {
			return r
		}
	}

	return match()
}
