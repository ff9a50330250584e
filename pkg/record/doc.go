// Package record captures outbound HTTP traffic into a transaction
// store.
//
// Transport wraps an http.RoundTripper: every request that completes a
// round trip through it is appended to the owning store as a
// cassette.Transaction, in completion order. Each in-flight request
// captures its own transaction; concurrent requests never share capture
// state. A request that errors or is canceled before its response body
// is read completes no capture and appends nothing.
//
// Capture is selective: a Filter restricts recording by host and path
// glob patterns and an optional boolean condition expression evaluated
// against {method, host, path, status}. Filtered-out requests still
// pass through to the network untouched; filtering affects capture
// only, never delivery.
//
// Sensitive headers (Authorization, Cookie, Set-Cookie, X-Api-Key by
// default) are redacted from captured transactions before they reach
// the store, so cassettes are safe to commit.
//
// Handler is the server-side counterpart used by the CLI: a recording
// reverse proxy that forwards to a fixed target origin and captures
// through the same filter, size limit, and redaction pipeline. Stored
// requests carry the target URL, so both capture paths produce
// interchangeable cassettes.
package record
