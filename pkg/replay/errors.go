package replay

import "fmt"

// UnmatchedError is returned by Transport.RoundTrip under
// PolicyException when a request does not match the next recorded
// transaction. Only the failing call site sees it; the session and the
// remaining queue stay usable.
type UnmatchedError struct {
	// Field names the comparison dimension that failed (method, url,
	// path, query, headers, body). Empty when the cassette had no
	// transactions left.
	Field string

	// Reason explains the conflict in the comparator's words.
	Reason string
}

func (e *UnmatchedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("playback: %s", e.Reason)
	}
	return fmt.Sprintf("playback: request does not match next recorded transaction: %s", e.Reason)
}
