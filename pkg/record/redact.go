package record

import "net/http"

// RedactedValue replaces redacted header values in stored transactions.
const RedactedValue = "[REDACTED]"

// DefaultRedactedHeaders are the header names redacted from captured
// transactions unless the caller overrides the set.
var DefaultRedactedHeaders = []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key"}

// redactHeaders replaces the values of each named header that is
// present in h. Names are matched case-insensitively. Headers absent
// from h are not added.
func redactHeaders(h http.Header, names []string) {
	for _, name := range names {
		canonical := http.CanonicalHeaderKey(name)
		if vals, ok := h[canonical]; ok {
			redacted := make([]string, len(vals))
			for i := range redacted {
				redacted[i] = RedactedValue
			}
			h[canonical] = redacted
		}
	}
}
