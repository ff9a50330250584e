// Package matching decides whether two HTTP requests are equivalent.
//
// Playback compares each incoming request against the next recorded
// request in the cassette. Equivalence is checked dimension by
// dimension, short-circuiting on the first mismatch:
//
//   - Method: exact
//   - URL: scheme, userinfo, host, and port exact
//   - Path: exact
//   - Query parameters: an unordered multiset of (key, value) pairs;
//     parameter order never matters, duplicates must match in count
//   - Headers: per-name value multisets, names case-insensitive,
//     subject to the configured ignore set (sentinel "all" skips
//     header comparison entirely)
//   - Body: byte-for-byte, unless body comparison is disabled
//
// On mismatch the Result carries a human-readable reason naming the
// dimension and the conflicting values, for diagnostic reporting.
//
// Compare is a pure function: no side effects, no retained state.
// DefaultIgnoredHeaders is exported for the owning engines to merge
// with user-configured ignores; it is never applied inside Compare
// itself.
package matching
