package replay

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/getmockd/replayd/internal/matching"
	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/httputil"
	"github.com/getmockd/replayd/pkg/logging"
)

// HandlerOptions configures a server-side playback Handler.
type HandlerOptions struct {
	// Store is the transaction queue to play back. Required.
	Store *cassette.Store

	// Policy decides what happens to unmatched requests. Defaults to
	// PolicyException, which answers 404 with a JSON error.
	Policy Policy

	// IgnoreHeaders lists header names excluded from comparison, on
	// top of the built-in defaults.
	IgnoreHeaders []string

	// IgnoreBody excludes bodies from comparison.
	IgnoreBody bool

	// Target is the upstream unmatched requests are forwarded to under
	// PolicyFallback. Required for that policy.
	Target *url.URL

	// Fallback carries forwarded requests. Defaults to
	// http.DefaultTransport.
	Fallback http.RoundTripper

	// Logger receives playback diagnostics. Defaults to a no-op.
	Logger *slog.Logger
}

// Handler drives sequential playback from the server side: inbound
// requests are compared against the head of the queue and answered
// with the stored response directly. URL comparison covers only path
// and query, since inbound requests target the playback server rather
// than the recorded origin.
type Handler struct {
	mu       sync.Mutex
	store    *cassette.Store
	policy   Policy
	matching matching.Options
	target   *url.URL
	fallback http.RoundTripper
	logger   *slog.Logger
}

var _ http.Handler = (*Handler)(nil)

// NewHandler creates a server-side playback handler.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("replay: store is required")
	}

	policy := opts.Policy
	if policy == "" {
		policy = PolicyException
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, string(policy))
	}
	if policy == PolicyFallback && opts.Target == nil {
		return nil, fmt.Errorf("replay: fallback policy requires a target")
	}

	fallback := opts.Fallback
	if fallback == nil {
		fallback = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	// Inbound requests carry headers the sending transport injects at
	// write time (Accept-Encoding), which a client-side recording never
	// sees. Ignore them on top of the caller's set.
	ignore := append([]string{"Accept-Encoding"}, opts.IgnoreHeaders...)

	return &Handler{
		store:  opts.Store,
		policy: policy,
		matching: matching.Options{
			IgnoreHeaders: ignore,
			IgnoreBody:    opts.IgnoreBody,
			IgnoreHost:    true,
		}.WithDefaultIgnores(),
		target:   opts.Target,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// Remaining reports how many transactions are still queued.
func (h *Handler) Remaining() int {
	return h.store.Len()
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequest(w, "read_error", "failed to read request body")
		return
	}
	incoming := cassette.RequestFrom(r, body)

	h.mu.Lock()
	txn, ok := h.store.PopFront()
	if !ok {
		h.mu.Unlock()
		h.logger.Debug("cassette exhausted",
			"method", r.Method,
			"path", r.URL.Path)
		h.unmatched(w, r, body, "no transactions remaining in cassette")
		return
	}

	result := matching.Compare(&incoming, &txn.Request, h.matching)
	if !result.Matched {
		h.store.PushFront(txn)
		h.mu.Unlock()
		h.logger.Debug("request does not match next transaction",
			"method", r.Method,
			"path", r.URL.Path,
			"transaction", txn.ID,
			"field", result.Field,
			"reason", result.Reason)
		h.unmatched(w, r, body, result.Reason)
		return
	}
	h.mu.Unlock()

	h.logger.Debug("replaying transaction",
		"transaction", txn.ID,
		"method", r.Method,
		"path", r.URL.Path)
	writeStored(w, &txn.Response)
}

// unmatched applies the configured policy to an inbound request that
// did not match.
func (h *Handler) unmatched(w http.ResponseWriter, r *http.Request, body []byte, reason string) {
	switch h.policy {
	case PolicyNull:
		w.Header().Set(HeaderRecognized, "false")
		w.Header().Set(HeaderMatchError, reason)
		w.WriteHeader(http.StatusOK)

	case PolicyFallback:
		h.forward(w, r, body, reason)

	default:
		w.Header().Set(HeaderRecognized, "false")
		w.Header().Set(HeaderMatchError, reason)
		httputil.WriteNotFound(w, "no_match", reason)
	}
}

// forward proxies an unmatched request to the configured target and
// relays the live response with diagnostic headers attached.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, body []byte, reason string) {
	out := r.Clone(r.Context())
	out.URL.Scheme = h.target.Scheme
	out.URL.Host = h.target.Host
	out.Host = ""
	out.RequestURI = ""
	removeHopByHopHeaders(out.Header)
	restoreBody(out, body)

	resp, err := h.fallback.RoundTrip(out)
	if err != nil {
		h.logger.Warn("fallback request failed",
			"target", h.target.String(),
			"error", err)
		httputil.WriteBadGateway(w, "fallback_error", err.Error())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	copyHeaders(w.Header(), resp.Header)
	w.Header().Set(HeaderRecognized, "false")
	w.Header().Set(HeaderMatchError, reason)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// copyHeaders copies headers from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// removeHopByHopHeaders removes headers that should not be forwarded.
func removeHopByHopHeaders(h http.Header) {
	hopByHopHeaders := []string{
		"Connection",
		"Keep-Alive",
		"Proxy-Authenticate",
		"Proxy-Authorization",
		"Proxy-Connection",
		"TE",
		"Trailers",
		"Transfer-Encoding",
		"Upgrade",
	}

	for _, header := range hopByHopHeaders {
		h.Del(header)
	}
}
