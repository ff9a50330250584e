package replay

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/logging"
)

// Responder is the local HTTP endpoint that stands in for the real
// network during playback. The Transport rewrites matched requests to
// it and points it at the transaction to serve via SetCurrent.
//
// Its handler contract: with a current transaction set it answers with
// the stored status, headers, and body plus the HeaderReplayed marker;
// without one it answers 200 with an empty body, echoing back any
// X-Replayd- request headers.
type Responder struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger

	mu      sync.Mutex
	current *cassette.Transaction

	closeOnce sync.Once
	closeErr  error
}

// NewResponder starts a responder on an ephemeral localhost port. The
// caller owns it and must Close it when playback ends.
func NewResponder(logger *slog.Logger) (*Responder, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("responder listen: %w", err)
	}

	r := &Responder{ln: ln, logger: logger}
	r.srv = &http.Server{Handler: r}

	go func() {
		if err := r.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("responder server error", "error", err)
		}
	}()

	logger.Debug("responder listening", "addr", ln.Addr().String())
	return r, nil
}

// Addr returns the host:port the responder listens on.
func (r *Responder) Addr() string {
	return r.ln.Addr().String()
}

// SetCurrent points the responder at the transaction to serve next.
// Pass nil to clear it once the response has been delivered.
func (r *Responder) SetCurrent(t *cassette.Transaction) {
	r.mu.Lock()
	r.current = t
	r.mu.Unlock()
}

// Close shuts the responder down. Safe to call more than once.
func (r *Responder) Close() error {
	r.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.closeErr = r.srv.Shutdown(ctx)
	})
	return r.closeErr
}

// ServeHTTP implements http.Handler.
func (r *Responder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	txn := r.current
	r.mu.Unlock()

	if txn == nil {
		echoDiagnosticHeaders(w.Header(), req.Header)
		w.WriteHeader(http.StatusOK)
		return
	}

	writeStored(w, &txn.Response)
}

// echoDiagnosticHeaders copies every X-Replayd- request header into the
// response so callers of the null policy can see why their request was
// not recognized.
func echoDiagnosticHeaders(dst, src http.Header) {
	for name, values := range src {
		if strings.HasPrefix(name, headerPrefix) {
			dst[name] = append([]string(nil), values...)
		}
	}
}

// writeStored writes a recorded response plus the replayed marker.
func writeStored(w http.ResponseWriter, resp *cassette.RecordedResponse) {
	for name, values := range resp.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set(HeaderReplayed, "true")

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}
