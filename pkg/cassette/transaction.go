package cassette

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/replayd/internal/id"
)

// Transaction represents a captured HTTP request/response pair.
// Once placed in a Store, a Transaction is never mutated, only
// consumed (PopFront) or requeued (PushFront).
type Transaction struct {
	ID         string    `json:"id" yaml:"id"`
	RecordedAt time.Time `json:"recordedAt" yaml:"recordedAt"`

	Request  RecordedRequest  `json:"request" yaml:"request"`
	Response RecordedResponse `json:"response" yaml:"response"`

	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// RecordedRequest represents the captured request details.
type RecordedRequest struct {
	Method  string      `json:"method" yaml:"method"`
	URL     string      `json:"url" yaml:"url"`
	Headers http.Header `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    Body        `json:"body,omitempty" yaml:"body,omitempty"`
}

// RecordedResponse represents the captured response details.
type RecordedResponse struct {
	StatusCode int         `json:"statusCode" yaml:"statusCode"`
	Status     string      `json:"status,omitempty" yaml:"status,omitempty"`
	Headers    http.Header `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       Body        `json:"body,omitempty" yaml:"body,omitempty"`
}

// Body holds raw request or response bytes.
//
// JSON encodes it as base64 (the []byte default). YAML writes valid
// UTF-8 content as a plain string for readable cassettes and falls back
// to !!binary base64 for anything else, so either way a round trip
// reproduces the exact bytes.
type Body []byte

// MarshalYAML implements yaml.Marshaler.
func (b Body) MarshalYAML() (interface{}, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!binary",
		Value: base64.StdEncoding.EncodeToString(b),
	}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Body) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!binary" {
		data, err := base64.StdEncoding.DecodeString(value.Value)
		if err != nil {
			return fmt.Errorf("invalid base64 body: %w", err)
		}
		*b = data
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*b = Body(s)
	return nil
}

// NewTransaction creates a new transaction with a unique ID.
func NewTransaction() *Transaction {
	return &Transaction{
		ID:         id.Short(),
		RecordedAt: time.Now(),
	}
}

// CaptureRequest captures details from an HTTP request with a
// pre-buffered body. It handles both client-side requests (absolute
// URL) and server-side requests (path-only URL plus Host header).
func (t *Transaction) CaptureRequest(req *http.Request, body []byte) {
	t.Request = RequestFrom(req, body)
}

// RequestFrom builds the recorded view of an HTTP request with a
// pre-buffered body. The comparator operates on this shape, so both
// capture and playback use it to snapshot a live request.
func RequestFrom(req *http.Request, body []byte) RecordedRequest {
	return RecordedRequest{
		Method:  req.Method,
		URL:     absoluteURL(req),
		Headers: req.Header.Clone(),
		Body:    body,
	}
}

// CaptureResponse captures details from an HTTP response with a
// pre-buffered body.
func (t *Transaction) CaptureResponse(resp *http.Response, body []byte, duration time.Duration) {
	t.Response = RecordedResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header.Clone(),
		Body:       body,
	}
	t.Duration = duration
}

// Validate checks that the transaction carries the minimum fields the
// playback engine needs. Returns nil when the transaction is usable.
func (t *Transaction) Validate() error {
	if t.Request.Method == "" {
		return fmt.Errorf("missing request method")
	}
	if t.Request.URL == "" {
		return fmt.Errorf("missing request url")
	}
	if _, err := url.Parse(t.Request.URL); err != nil {
		return fmt.Errorf("invalid request url %q: %w", t.Request.URL, err)
	}
	if t.Response.StatusCode < 100 || t.Response.StatusCode > 599 {
		return fmt.Errorf("invalid response status code %d", t.Response.StatusCode)
	}
	return nil
}

// absoluteURL reconstructs the full request URL. Client-side requests
// already carry an absolute URL; server-side requests are rebuilt from
// the TLS state and Host header.
func absoluteURL(req *http.Request) string {
	if req.URL.IsAbs() {
		return req.URL.String()
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	u := *req.URL
	u.Scheme = scheme
	u.Host = req.Host
	return u.String()
}
