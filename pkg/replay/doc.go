// Package replay serves recorded transactions back to HTTP clients in
// strict recorded order.
//
// Transport is the client-side surface: an http.RoundTripper that pops
// the next transaction from the cassette, compares it against the
// outgoing request, and rewrites matched requests to a local Responder
// that answers with the stored response. Unmatched requests are handled
// by the configured Policy: fail the call (exception), answer with an
// empty diagnostic response (null), or let the request through to its
// real destination (fallback).
//
// Handler is the server-side surface used by the CLI: the same
// pop/compare/policy cycle driven by inbound requests, writing stored
// responses directly. Because inbound requests target the playback
// server rather than the recorded origin, Handler compares only the
// path and query portions of the URL.
//
// Playback is strictly sequential: every request is compared against
// the head of the queue only. A request that would match a transaction
// deeper in the queue is still unmatched, and the queue is left intact
// for the next request.
package replay
