package record

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/getmockd/replayd/pkg/cassette"
)

// recorder holds the capture pipeline shared by the client-side
// Transport and the proxy Handler: filter, size limit, redaction, and
// the store append.
type recorder struct {
	store       *cassette.Store
	filter      *Filter
	redact      []string
	maxBodySize int64
	logger      *slog.Logger
}

// capture appends a completed exchange to the store if the filter and
// size limits allow it. The recorded request must already carry its
// buffered body; u is the request URL the filter is evaluated against.
func (r *recorder) capture(req cassette.RecordedRequest, u *url.URL, resp *http.Response, respBody []byte, duration time.Duration) {
	host := u.Hostname()
	path := u.Path

	if r.filter != nil && !r.filter.ShouldRecord(req.Method, host, path, resp.StatusCode) {
		r.logger.Debug("exchange filtered out",
			"method", req.Method, "host", host, "path", path, "status", resp.StatusCode)
		return
	}

	if int64(len(req.Body)) > r.maxBodySize || int64(len(respBody)) > r.maxBodySize {
		r.logger.Warn("exchange not captured: body exceeds max size",
			"method", req.Method, "url", req.URL,
			"request_bytes", len(req.Body), "response_bytes", len(respBody),
			"max", r.maxBodySize)
		return
	}

	txn := cassette.NewTransaction()
	txn.Request = req
	txn.CaptureResponse(resp, respBody, duration)
	redactHeaders(txn.Request.Headers, r.redact)
	redactHeaders(txn.Response.Headers, r.redact)

	r.store.PushBack(txn)

	r.logger.Debug("recorded",
		"id", txn.ID, "method", req.Method, "url", req.URL,
		"status", resp.StatusCode, "duration", duration)
}
