package record

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/httputil"
	"github.com/getmockd/replayd/pkg/logging"
)

// HandlerOptions configures a recording proxy Handler.
type HandlerOptions struct {
	// Store receives completed transactions. Required.
	Store *cassette.Store

	// Target is the upstream origin requests are forwarded to. Required.
	Target *url.URL

	// Filter restricts which exchanges are captured (nil = capture all).
	Filter *Filter

	// Redact lists header names whose values are replaced before
	// storage. nil means DefaultRedactedHeaders; an empty non-nil
	// slice disables redaction.
	Redact []string

	// MaxBodySize caps captured body sizes. An exchange whose request
	// or response body exceeds it is relayed intact but not captured.
	// Defaults to DefaultMaxBodySize.
	MaxBodySize int64

	// Transport performs the upstream round trips. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	// Logger for capture events (nil = no logging).
	Logger *slog.Logger
}

// Handler is a recording reverse proxy: it forwards every request to
// the target origin, relays the response to the client, and captures
// the completed exchange. Stored requests carry the target URL, so
// cassettes recorded through the proxy replay the same way as ones
// captured by the client-side Transport.
type Handler struct {
	rec       recorder
	target    *url.URL
	transport http.RoundTripper
	logger    *slog.Logger
}

var _ http.Handler = (*Handler)(nil)

// NewHandler creates a recording proxy handler with the given options.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("record: store is required")
	}
	if opts.Target == nil {
		return nil, fmt.Errorf("record: target is required")
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	redact := opts.Redact
	if redact == nil {
		redact = DefaultRedactedHeaders
	}

	maxBody := opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Handler{
		rec: recorder{
			store:       opts.Store,
			filter:      opts.Filter,
			redact:      redact,
			maxBodySize: maxBody,
			logger:      logger,
		},
		target:    opts.Target,
		transport: transport,
		logger:    logger,
	}, nil
}

// Recorded returns the number of transactions captured so far.
func (h *Handler) Recorded() int {
	return h.rec.store.Len()
}

// ServeHTTP forwards the request to the target, relays the response,
// and captures the exchange once the upstream body has been fully
// received. A request the upstream never answers is not captured.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	reqBody, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("failed to read request body", "error", err)
		httputil.WriteBadRequest(w, "read_error", "failed to read request body")
		return
	}

	out := r.Clone(r.Context())
	out.URL.Scheme = h.target.Scheme
	out.URL.Host = h.target.Host
	out.Host = ""
	out.RequestURI = ""
	removeHopByHopHeaders(out.Header)

	// Snapshot before the forwarding headers go on, so cassettes stay
	// free of per-hop noise.
	recordedReq := cassette.RequestFrom(out, reqBody)

	out.Header.Set("X-Forwarded-For", r.RemoteAddr)
	out.Header.Set("X-Forwarded-Host", r.Host)
	out.Body = io.NopCloser(bytes.NewReader(reqBody))
	out.ContentLength = int64(len(reqBody))

	resp, err := h.transport.RoundTrip(out)
	if err != nil {
		h.logger.Warn("upstream request failed",
			"target", h.target.String(),
			"error", err)
		httputil.WriteBadGateway(w, "upstream_error", err.Error())
		return
	}

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		h.logger.Warn("failed to read upstream response", "error", err)
		httputil.WriteBadGateway(w, "upstream_error", "failed to read upstream response")
		return
	}

	removeHopByHopHeaders(resp.Header)
	duration := time.Since(startTime)

	h.rec.capture(recordedReq, out.URL, resp, respBody, duration)

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(respBody)
}

// copyHeaders copies headers from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// removeHopByHopHeaders removes headers that must not cross the proxy.
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
