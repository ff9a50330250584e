package record

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/logging"
)

// DefaultMaxBodySize is the default maximum body size to capture (10MB).
const DefaultMaxBodySize = 10 * 1024 * 1024

// Options configures a record Transport.
type Options struct {
	// Store receives completed transactions. Required.
	Store *cassette.Store

	// Inner is the transport that performs the real round trip.
	// Defaults to http.DefaultTransport.
	Inner http.RoundTripper

	// Filter restricts which exchanges are captured (nil = capture all).
	Filter *Filter

	// Redact lists header names whose values are replaced before
	// storage. nil means DefaultRedactedHeaders; an empty non-nil
	// slice disables redaction.
	Redact []string

	// MaxBodySize caps captured body sizes. An exchange whose request
	// or response body exceeds it is forwarded intact but not
	// captured. Defaults to DefaultMaxBodySize.
	MaxBodySize int64

	// Logger for capture events (nil = no logging).
	Logger *slog.Logger
}

// Transport is an http.RoundTripper that records completed exchanges.
type Transport struct {
	inner http.RoundTripper
	rec   recorder
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport creates a recording transport with the given options.
func NewTransport(opts Options) (*Transport, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("record: store is required")
	}

	inner := opts.Inner
	if inner == nil {
		inner = http.DefaultTransport
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

	return &Transport{
		inner: inner,
		rec: recorder{
			store:       opts.Store,
			filter:      opts.Filter,
			redact:      redact,
			maxBodySize: maxBody,
			logger:      logger,
		},
	}, nil
}

// RoundTrip forwards the request through the inner transport and, once
// the response body has been fully received, appends the completed
// transaction to the store. The append happens exactly once per
// completed round trip; a request that fails or is canceled before
// completion is never appended.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	startTime := time.Now()

	// Read and buffer the request body
	var reqBody []byte
	outReq := req.Clone(req.Context())
	if req.Body != nil {
		var err error
		reqBody, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("record: reading request body: %w", err)
		}
		outReq.Body = io.NopCloser(bytes.NewReader(reqBody))
		outReq.ContentLength = int64(len(reqBody))
	}

	resp, err := t.inner.RoundTrip(outReq)
	if err != nil {
		return nil, err
	}

	// Read and buffer the response body, then hand the caller a fresh
	// reader over the same bytes.
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("record: reading response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	resp.ContentLength = int64(len(respBody))

	duration := time.Since(startTime)

	t.rec.capture(cassette.RequestFrom(req, reqBody), req.URL, resp, respBody, duration)

	return resp, nil
}
