package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/logging"
	"github.com/getmockd/replayd/pkg/record"
	"github.com/getmockd/replayd/pkg/replay"
)

// ErrNoCassette is returned when record or playback mode is selected
// without a cassette path.
var ErrNoCassette = errors.New("cassette path is required")

// Options configures a Session. The zero value is a passthrough
// session over http.DefaultTransport.
type Options struct {
	// Mode selects passthrough, record, playback, or auto. Defaults to
	// ModePassthrough.
	Mode Mode

	// Cassette is the recording file path. Required for record and
	// playback modes.
	Cassette string

	// Policy decides what playback does with unmatched requests.
	// Defaults to replay.PolicyException.
	Policy replay.Policy

	// IgnoreHeaders lists header names excluded from playback
	// comparison, on top of the built-in defaults.
	IgnoreHeaders []string

	// IgnoreBody excludes bodies from playback comparison.
	IgnoreBody bool

	// Filter restricts which exchanges record mode captures.
	Filter record.FilterConfig

	// Redact lists header names scrubbed from captured transactions.
	// Nil applies record.DefaultRedactedHeaders.
	Redact []string

	// MaxBodySize caps captured body sizes in record mode.
	MaxBodySize int64

	// Transport is the real network transport. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	// Logger receives session diagnostics. Defaults to a no-op.
	Logger *slog.Logger
}

// Session owns one mode-controlled HTTP client surface and the
// resources behind it. Create with New, hand out Client or Transport,
// and Close on every exit path.
type Session struct {
	id           string
	mode         Mode
	policy       replay.Policy
	cassettePath string
	store        *cassette.Store
	responder    *replay.Responder
	transport    http.RoundTripper
	client       *http.Client
	logger       *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New validates the options, resolves the effective mode, and wires
// the matching engine. All configuration problems are fatal here:
// invalid mode or policy strings, record/playback without a cassette
// path, and a playback cassette that is missing or unreadable.
func New(opts Options) (*Session, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModePassthrough
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, string(opts.Mode))
	}

	cassettePath := opts.Cassette
	if mode == ModeAuto {
		var err error
		mode, cassettePath, err = resolveAuto(cassettePath)
		if err != nil {
			return nil, err
		}
	}

	policy := opts.Policy
	if policy == "" {
		policy = replay.PolicyException
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: %q", replay.ErrInvalidPolicy, string(opts.Policy))
	}

	inner := opts.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Session{
		id:           uuid.NewString(),
		mode:         mode,
		policy:       policy,
		cassettePath: cassettePath,
	}
	s.logger = logger.With("session", s.id)

	switch mode {
	case ModePassthrough:
		s.transport = inner

	case ModeRecord:
		if cassettePath == "" {
			return nil, fmt.Errorf("record mode: %w", ErrNoCassette)
		}
		var filter *record.Filter
		if !opts.Filter.Empty() {
			var err error
			filter, err = record.NewFilter(opts.Filter)
			if err != nil {
				return nil, err
			}
		}
		s.store = cassette.NewStore()
		rt, err := record.NewTransport(record.Options{
			Store:       s.store,
			Inner:       inner,
			Filter:      filter,
			Redact:      opts.Redact,
			MaxBodySize: opts.MaxBodySize,
			Logger:      s.logger,
		})
		if err != nil {
			return nil, err
		}
		s.transport = rt

	case ModePlayback:
		if cassettePath == "" {
			return nil, fmt.Errorf("playback mode: %w", ErrNoCassette)
		}
		txns, err := cassette.ReadFile(cassettePath)
		if err != nil {
			return nil, fmt.Errorf("playback mode: %w", err)
		}
		s.store = cassette.NewStore()
		s.store.Load(txns)

		responder, err := replay.NewResponder(s.logger)
		if err != nil {
			return nil, err
		}
		rt, err := replay.NewTransport(replay.Options{
			Store:         s.store,
			Responder:     responder,
			Policy:        policy,
			IgnoreHeaders: opts.IgnoreHeaders,
			IgnoreBody:    opts.IgnoreBody,
			Inner:         http.DefaultTransport,
			Fallback:      inner,
			Logger:        s.logger,
		})
		if err != nil {
			_ = responder.Close()
			return nil, err
		}
		s.responder = responder
		s.transport = rt
	}

	s.client = &http.Client{Transport: s.transport}
	s.logger.Info("session started", "mode", mode, "cassette", cassettePath)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Mode returns the effective mode the session resolved to.
func (s *Session) Mode() Mode {
	return s.mode
}

// Client returns an *http.Client routed through the session's
// transport.
func (s *Session) Client() *http.Client {
	return s.client
}

// Transport returns the session's http.RoundTripper, for callers that
// wire their own client.
func (s *Session) Transport() http.RoundTripper {
	return s.transport
}

// Remaining reports how many transactions are captured (record) or
// still queued (playback). Zero in passthrough mode.
func (s *Session) Remaining() int {
	if s.store == nil {
		return 0
	}
	return s.store.Len()
}

// Close releases the session's resources. In record mode it flushes
// the captured transactions to the cassette path; flush problems are
// logged as warnings, never returned, so teardown always completes. In
// playback mode it shuts the responder down. Safe to call more than
// once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		switch s.mode {
		case ModeRecord:
			_ = s.flush(s.cassettePath)
		case ModePlayback:
			if err := s.responder.Close(); err != nil {
				s.closeErr = err
			}
		}
		s.logger.Info("session closed", "mode", s.mode)
	})
	return s.closeErr
}

// Save flushes the captured transactions immediately, independent of
// teardown. An empty path writes to the configured cassette path.
// Outside record mode it is a no-op that logs a warning.
func (s *Session) Save(path string) error {
	if s.mode != ModeRecord {
		s.logger.Warn("save ignored outside record mode", "mode", s.mode)
		return nil
	}
	if path == "" {
		path = s.cassettePath
	}
	return s.flush(path)
}

// flush writes the store snapshot to path. A missing parent directory
// is reported before the write, which creates it and proceeds anyway.
func (s *Session) flush(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			s.logger.Warn("cassette directory does not exist, creating it", "dir", dir)
		}
	}

	txns := s.store.Snapshot()
	if err := cassette.WriteFile(path, txns); err != nil {
		s.logger.Warn("failed to write cassette", "path", path, "error", err)
		return err
	}
	s.logger.Info("cassette written", "path", path, "transactions", len(txns))
	return nil
}
