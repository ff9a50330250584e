package replay

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getmockd/replayd/internal/matching"
	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/logging"
)

// Options configures a playback Transport.
type Options struct {
	// Store is the transaction queue to play back. Required.
	Store *cassette.Store

	// Responder serves stored responses for matched requests. Required.
	Responder *Responder

	// Policy decides what happens to unmatched requests. Defaults to
	// PolicyException.
	Policy Policy

	// IgnoreHeaders lists header names excluded from comparison, on
	// top of the built-in defaults. The sentinel "all" disables header
	// comparison entirely.
	IgnoreHeaders []string

	// IgnoreBody excludes bodies from comparison.
	IgnoreBody bool

	// Inner carries rewritten requests to the responder. Defaults to
	// http.DefaultTransport.
	Inner http.RoundTripper

	// Fallback carries unmatched requests to their real destination
	// under PolicyFallback. Defaults to Inner.
	Fallback http.RoundTripper

	// Logger receives playback diagnostics. Defaults to a no-op.
	Logger *slog.Logger
}

// Transport replays recorded transactions in strict order. It
// implements http.RoundTripper: each request is compared against the
// head of the queue, and a mutex serializes the whole
// pop-compare-serve cycle so concurrent callers degrade to FIFO.
type Transport struct {
	mu        sync.Mutex
	store     *cassette.Store
	responder *Responder
	policy    Policy
	matching  matching.Options
	inner     http.RoundTripper
	fallback  http.RoundTripper
	logger    *slog.Logger
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport creates a playback transport.
func NewTransport(opts Options) (*Transport, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("replay: store is required")
	}
	if opts.Responder == nil {
		return nil, fmt.Errorf("replay: responder is required")
	}

	policy := opts.Policy
	if policy == "" {
		policy = PolicyException
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, string(policy))
	}

	inner := opts.Inner
	if inner == nil {
		inner = http.DefaultTransport
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = inner
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Transport{
		store:     opts.Store,
		responder: opts.Responder,
		policy:    policy,
		matching: matching.Options{
			IgnoreHeaders: opts.IgnoreHeaders,
			IgnoreBody:    opts.IgnoreBody,
		}.WithDefaultIgnores(),
		inner:    inner,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := readRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("replay: read request body: %w", err)
	}
	incoming := cassette.RequestFrom(req, body)

	t.mu.Lock()
	defer t.mu.Unlock()

	txn, ok := t.store.PopFront()
	if !ok {
		t.logger.Debug("cassette exhausted",
			"method", incoming.Method,
			"url", incoming.URL)
		return t.unmatched(req, body, "", "no transactions remaining in cassette")
	}

	result := matching.Compare(&incoming, &txn.Request, t.matching)
	if !result.Matched {
		t.store.PushFront(txn)
		t.logger.Debug("request does not match next transaction",
			"method", incoming.Method,
			"url", incoming.URL,
			"transaction", txn.ID,
			"field", result.Field,
			"reason", result.Reason)
		return t.unmatched(req, body, result.Field, result.Reason)
	}

	t.logger.Debug("replaying transaction",
		"transaction", txn.ID,
		"method", incoming.Method,
		"url", incoming.URL)

	t.responder.SetCurrent(txn)
	defer t.responder.SetCurrent(nil)

	return t.inner.RoundTrip(t.rewriteToResponder(req, body))
}

// unmatched applies the configured policy to a request that did not
// match. Unmatched exchanges are never appended to the store.
func (t *Transport) unmatched(req *http.Request, body []byte, field, reason string) (*http.Response, error) {
	switch t.policy {
	case PolicyNull:
		out := t.rewriteToResponder(req, body)
		out.Header.Set(HeaderRecognized, "false")
		out.Header.Set(HeaderMatchError, reason)
		return t.inner.RoundTrip(out)

	case PolicyFallback:
		out := req.Clone(req.Context())
		restoreBody(out, body)
		resp, err := t.fallback.RoundTrip(out)
		if err != nil {
			return nil, err
		}
		resp.Header.Set(HeaderRecognized, "false")
		resp.Header.Set(HeaderMatchError, reason)
		return resp, nil

	default:
		return nil, &UnmatchedError{Field: field, Reason: reason}
	}
}

// rewriteToResponder redirects a request to the local responder,
// preserving method, path, query, headers, and body.
func (t *Transport) rewriteToResponder(req *http.Request, body []byte) *http.Request {
	out := req.Clone(req.Context())
	out.URL.Scheme = "http"
	out.URL.Host = t.responder.Addr()
	out.Host = ""
	restoreBody(out, body)
	return out
}

// readRequestBody drains and closes a request body, returning its
// bytes. A nil or empty body yields nil.
func readRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer func() { _ = req.Body.Close() }()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// restoreBody installs a fresh reader over pre-buffered bytes so the
// request can be sent onward.
func restoreBody(req *http.Request, body []byte) {
	if len(body) == 0 {
		req.Body = http.NoBody
		req.ContentLength = 0
		req.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
}
