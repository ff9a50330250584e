// Package session wires the record and playback engines behind a
// single mode-controlled HTTP client.
//
// A Session is constructed in one of three effective modes:
//
//   - passthrough: no interception, requests hit the real network.
//   - record: requests hit the real network and every completed
//     exchange is captured; Close (or Save) writes the cassette.
//   - playback: requests are answered from a cassette in recorded
//     order; nothing touches the real network unless the fallback
//     policy is in play.
//
// ModeAuto defers the choice to the REPLAYD_MODE and REPLAYD_CASSETTE
// environment variables at construction, so a test suite can flip a
// recorded run to live without code changes. The environment is read
// here only; the engines never consult it.
//
// All configuration is validated in New: an invalid mode or policy, a
// record or playback session without a cassette path, or an unreadable
// playback cassette fail construction immediately. After New, the only
// error a caller is expected to handle per request is the playback
// UnmatchedError under the exception policy.
package session
