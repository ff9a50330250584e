package replay

// Diagnostic headers added by the playback engine. All replay-owned
// headers share the X-Replayd- prefix so the responder can echo them
// back wholesale.
const (
	// HeaderReplayed marks a response as regenerated from a recording
	// rather than produced by the real destination.
	HeaderReplayed = "X-Replayd-Replayed"

	// HeaderRecognized is set to "false" when no recorded transaction
	// matched the request.
	HeaderRecognized = "X-Replayd-Recognized"

	// HeaderMatchError carries the comparator's explanation of why the
	// request did not match.
	HeaderMatchError = "X-Replayd-Match-Error"
)

const headerPrefix = "X-Replayd-"
