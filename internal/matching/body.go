package matching

import (
	"bytes"
	"fmt"
)

// maxBodyReasonLen caps how much body content appears in a mismatch
// reason.
const maxBodyReasonLen = 200

// compareBody checks exact byte-for-byte body equality.
func compareBody(incoming, recorded []byte) Result {
	if bytes.Equal(incoming, recorded) {
		return match()
	}
	return mismatch("body", fmt.Sprintf("body expected %q, got %q",
		truncate(string(recorded), maxBodyReasonLen),
		truncate(string(incoming), maxBodyReasonLen)))
}

// truncate shortens a string to maxLen, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
