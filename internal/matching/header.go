package matching

import (
	"fmt"
	"net/http"
	"strings"
)

// compareHeaders checks header equivalence across the union of both
// header maps. Header names are case-insensitive; for every name not in
// the ignore set, the value lists must contain the same values the same
// number of times (order-insensitive). A name present on only one side
// is a mismatch.
func compareHeaders(incoming, recorded http.Header, ignore []string) Result {
	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[http.CanonicalHeaderKey(name)] = true
	}

	in := canonicalHeaders(incoming)
	rec := canonicalHeaders(recorded)

	for name, recVals := range rec {
		if ignored[name] {
			continue
		}
		inVals, ok := in[name]
		if !ok {
			return mismatch("headers", fmt.Sprintf("header %s expected %q, got none", name, recVals))
		}
		if !sameValueMultiset(inVals, recVals) {
			return mismatch("headers", fmt.Sprintf("header %s expected %q, got %q", name, recVals, inVals))
		}
	}
	for name, inVals := range in {
		if ignored[name] {
			continue
		}
		if _, ok := rec[name]; !ok {
			return mismatch("headers", fmt.Sprintf("unexpected header %s with values %q", name, inVals))
		}
	}
	return match()
}

// canonicalHeaders rebuilds a header map with canonical MIME names so
// lookups behave case-insensitively even for headers that were stored
// with unusual casing.
func canonicalHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, vals := range h {
		canonical := http.CanonicalHeaderKey(strings.TrimSpace(name))
		out[canonical] = append(out[canonical], vals...)
	}
	return out
}
