package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Mode selects how a session treats outgoing requests. It is fixed for
// the session's lifetime.
type Mode string

const (
	// ModePassthrough disables interception entirely. This is the
	// default.
	ModePassthrough Mode = "passthrough"

	// ModeRecord forwards requests to the real network and captures
	// completed exchanges into a cassette.
	ModeRecord Mode = "record"

	// ModePlayback answers requests from a cassette in recorded order.
	ModePlayback Mode = "playback"

	// ModeAuto resolves to one of the other modes from the environment
	// at construction.
	ModeAuto Mode = "auto"
)

// Environment variables consulted by ModeAuto.
const (
	// EnvMode names the effective mode (passthrough, record, or
	// playback). Unset or empty means passthrough.
	EnvMode = "REPLAYD_MODE"

	// EnvCassette names the cassette file, used when the session
	// options leave the path empty.
	EnvCassette = "REPLAYD_CASSETTE"
)

// ErrInvalidMode is returned when a mode string is not one of
// passthrough, record, playback, or auto.
var ErrInvalidMode = errors.New("invalid session mode")

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModePassthrough, ModeRecord, ModePlayback, ModeAuto:
		return true
	}
	return false
}

// ParseMode parses a mode string case-insensitively. The empty string
// parses to ModePassthrough.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModePassthrough, nil
	}
	m := Mode(strings.ToLower(s))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// resolveAuto reads the effective mode and cassette path from the
// environment. An explicit cassette path wins over EnvCassette; ModeAuto
// in the environment itself is rejected to avoid a resolution loop.
func resolveAuto(cassettePath string) (Mode, string, error) {
	mode, err := ParseMode(os.Getenv(EnvMode))
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", EnvMode, err)
	}
	if mode == ModeAuto {
		return "", "", fmt.Errorf("%s: %w: %q", EnvMode, ErrInvalidMode, ModeAuto)
	}
	if cassettePath == "" {
		cassettePath = os.Getenv(EnvCassette)
	}
	return mode, cassettePath, nil
}
