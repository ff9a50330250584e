package matching

import (
	"fmt"
	"net/url"
	"sort"
)

// compareURL checks URL equivalence: scheme, userinfo, host, port, and
// path must match exactly; query parameters are compared as an
// unordered multiset of (key, value) pairs.
func compareURL(incoming, recorded string) Result {
	in, err := url.Parse(incoming)
	if err != nil {
		return mismatch("url", fmt.Sprintf("incoming url %q is unparseable: %v", incoming, err))
	}
	rec, err := url.Parse(recorded)
	if err != nil {
		return mismatch("url", fmt.Sprintf("recorded url %q is unparseable: %v", recorded, err))
	}

	if in.Scheme != rec.Scheme {
		return mismatch("url", fmt.Sprintf("url scheme expected %q, got %q", rec.Scheme, in.Scheme))
	}
	if in.User.String() != rec.User.String() {
		return mismatch("url", fmt.Sprintf("url userinfo expected %q, got %q", rec.User, in.User))
	}
	if in.Hostname() != rec.Hostname() {
		return mismatch("url", fmt.Sprintf("url host expected %q, got %q", rec.Hostname(), in.Hostname()))
	}
	if in.Port() != rec.Port() {
		return mismatch("url", fmt.Sprintf("url port expected %q, got %q", rec.Port(), in.Port()))
	}
	if in.Path != rec.Path {
		return mismatch("path", fmt.Sprintf("path expected %q, got %q", rec.Path, in.Path))
	}

	return compareQuery(in.Query(), rec.Query())
}

// comparePathQuery checks only the path and query portions of two URLs.
// Server-side playback compares against this because inbound requests
// carry the playback server's own host, not the recorded origin.
func comparePathQuery(incoming, recorded string) Result {
	in, err := url.Parse(incoming)
	if err != nil {
		return mismatch("url", fmt.Sprintf("incoming url %q is unparseable: %v", incoming, err))
	}
	rec, err := url.Parse(recorded)
	if err != nil {
		return mismatch("url", fmt.Sprintf("recorded url %q is unparseable: %v", recorded, err))
	}

	if in.Path != rec.Path {
		return mismatch("path", fmt.Sprintf("path expected %q, got %q", rec.Path, in.Path))
	}

	return compareQuery(in.Query(), rec.Query())
}

// compareQuery checks query parameters as an unordered multiset:
// parameter order is irrelevant, but duplicated pairs must appear the
// same number of times on both sides.
func compareQuery(incoming, recorded url.Values) Result {
	for key, recVals := range recorded {
		inVals, ok := incoming[key]
		if !ok {
			return mismatch("query", fmt.Sprintf("query param %s expected %q, got none", key, recVals))
		}
		if !sameValueMultiset(inVals, recVals) {
			return mismatch("query", fmt.Sprintf("query param %s expected %q, got %q", key, recVals, inVals))
		}
	}
	for key, inVals := range incoming {
		if _, ok := recorded[key]; !ok {
			return mismatch("query", fmt.Sprintf("unexpected query param %s with values %q", key, inVals))
		}
	}
	return match()
}

// sameValueMultiset reports whether two value lists contain the same
// values the same number of times, regardless of order.
func sameValueMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
