package replay

import (
	"errors"
	"fmt"
	"strings"
)

// Policy controls what happens when a request does not match the next
// recorded transaction (or the cassette is exhausted).
type Policy string

const (
	// PolicyException fails the call site with an *UnmatchedError.
	// This is the default.
	PolicyException Policy = "exception"

	// PolicyNull answers with an empty 200 response carrying
	// diagnostic headers.
	PolicyNull Policy = "null"

	// PolicyFallback lets the request proceed to its real destination
	// and attaches diagnostic headers to the live response.
	PolicyFallback Policy = "fallback"
)

// ErrInvalidPolicy is returned when a policy string is not one of
// exception, null, or fallback.
var ErrInvalidPolicy = errors.New("invalid unmatched-request policy")

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyException, PolicyNull, PolicyFallback:
		return true
	}
	return false
}

// ParsePolicy parses a policy string case-insensitively. The empty
// string parses to PolicyException.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return PolicyException, nil
	}
	p := Policy(strings.ToLower(s))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
	return p, nil
}
