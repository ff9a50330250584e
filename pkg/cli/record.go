package cli

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getmockd/replayd/internal/id"
	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/cli/internal/output"
	"github.com/getmockd/replayd/pkg/record"
)

// Server timeouts for the record and play commands.
const (
	serverReadTimeout  = 30 * time.Second
	serverWriteTimeout = 60 * time.Second
	serverIdleTimeout  = 120 * time.Second
)

// RunRecord handles the record command: a recording reverse proxy that
// forwards traffic to the target and writes the captured exchanges to
// a cassette on shutdown.
func RunRecord(args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)

	listen := fs.String("listen", "", "Address to listen on (default :8080)")
	target := fs.String("target", "", "Upstream origin to forward to (required)")
	fs.StringVar(target, "t", "", "Upstream origin (shorthand)")
	cassettePath := fs.String("cassette", "", "Cassette file to write (default: generated name)")
	fs.StringVar(cassettePath, "c", "", "Cassette file (shorthand)")

	includeHosts := fs.String("include-hosts", "", "Only capture these hosts (comma-separated globs)")
	excludeHosts := fs.String("exclude-hosts", "", "Never capture these hosts (comma-separated globs)")
	includePaths := fs.String("include-paths", "", "Only capture these paths (comma-separated globs)")
	excludePaths := fs.String("exclude-paths", "", "Never capture these paths (comma-separated globs)")
	condition := fs.String("condition", "", `Capture condition over {method, host, path, status}, e.g. 'status < 500'`)

	var redact stringSliceFlag
	fs.Var(&redact, "redact", "Header to redact before storage (can be specified multiple times)")
	maxBodySize := fs.Int64("max-body-size", 0, "Skip capturing exchanges with bodies larger than this (bytes)")

	configPath := fs.String("config", "", "Config file path (default: replayd.yaml if present)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (text, json)")
	logFile := fs.String("log-file", "", "Also write logs to this file")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: replayd record [flags]

Start a recording proxy. Requests sent to the listen address are
forwarded to the target origin, responses are relayed back, and every
completed exchange is captured. The cassette is written when the proxy
shuts down (Ctrl+C).

Flags:
      --listen <addr>       Address to listen on (default :8080)
  -t, --target <url>        Upstream origin to forward to (required)
  -c, --cassette <path>     Cassette file to write (.json, .yaml, or .yml)
      --include-hosts       Only capture these hosts (comma-separated globs)
      --exclude-hosts       Never capture these hosts
      --include-paths       Only capture these paths (comma-separated globs)
      --exclude-paths       Never capture these paths
      --condition <expr>    Capture condition over {method, host, path, status}
      --redact <header>     Header to redact (repeatable; default: Authorization,
                            Cookie, Set-Cookie, X-Api-Key)
      --max-body-size <n>   Skip exchanges with bodies larger than n bytes
      --config <path>       Config file path (default: replayd.yaml if present)
      --log-level           Log level (debug, info, warn, error)
      --log-format          Log format (text, json)
      --log-file            Also write logs to this file

Examples:
  # Record traffic against a live API
  replayd record --target https://api.example.com --cassette session.yaml

  # Point your client at the proxy
  curl http://localhost:8080/users

  # Capture only API calls, skipping health checks
  replayd record -t https://api.example.com -c api.yaml \
    --include-paths '/api/**' --exclude-paths '/health'

  # Skip server errors and scrub a custom header
  replayd record -t https://api.example.com --condition 'status < 500' \
    --redact X-Session-Token
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	seen := flagsSeen(fs)
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	if seen["listen"] {
		cfg.Listen = *listen
	}
	if seen["target"] || seen["t"] {
		cfg.Target = *target
	}
	if seen["cassette"] || seen["c"] {
		cfg.Cassette = *cassettePath
	}
	if seen["include-hosts"] {
		cfg.Filter.IncludeHosts = splitPatterns(*includeHosts)
	}
	if seen["exclude-hosts"] {
		cfg.Filter.ExcludeHosts = splitPatterns(*excludeHosts)
	}
	if seen["include-paths"] {
		cfg.Filter.IncludePaths = splitPatterns(*includePaths)
	}
	if seen["exclude-paths"] {
		cfg.Filter.ExcludePaths = splitPatterns(*excludePaths)
	}
	if seen["condition"] {
		cfg.Filter.Condition = *condition
	}
	if seen["redact"] {
		cfg.Redact = redact
	}
	if seen["max-body-size"] {
		cfg.MaxBodySize = *maxBodySize
	}
	if seen["log-level"] {
		cfg.Log.Level = *logLevel
	}
	if seen["log-format"] {
		cfg.Log.Format = *logFormat
	}
	if seen["log-file"] {
		cfg.Log.File = *logFile
	}

	if cfg.Target == "" {
		return errors.New("--target is required (or set target in replayd.yaml)")
	}
	cfg.Mode = "record"
	if cfg.Cassette == "" {
		cfg.Cassette = fmt.Sprintf("cassette-%s.yaml", id.ULID())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	targetURL, err := url.Parse(cfg.Target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", cfg.Target, err)
	}

	log, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	var filter *record.Filter
	if !cfg.Filter.Empty() {
		filter, err = record.NewFilter(cfg.Filter)
		if err != nil {
			return err
		}
	}

	store := cassette.NewStore()
	handler, err := record.NewHandler(record.HandlerOptions{
		Store:       store,
		Target:      targetURL,
		Filter:      filter,
		Redact:      cfg.Redact,
		MaxBodySize: cfg.MaxBodySize,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}

	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	fmt.Printf("Recording proxy running on http://%s\n", listenerAddr(listener))
	fmt.Printf("Target:   %s\n", cfg.Target)
	fmt.Printf("Cassette: %s\n", cfg.Cassette)
	fmt.Println("Press Ctrl+C to stop")

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down proxy...")
	if err := server.Close(); err != nil {
		output.Warn("server shutdown error: %v", err)
	}

	txns := store.Snapshot()
	if len(txns) == 0 {
		fmt.Println("No transactions captured")
		return nil
	}

	if err := cassette.WriteFile(cfg.Cassette, txns); err != nil {
		return fmt.Errorf("failed to write cassette: %w", err)
	}

	fmt.Printf("\nCaptured %d transactions to %s\n", len(txns), cfg.Cassette)
	for _, txn := range txns {
		fmt.Printf("  %s %s (%d)\n", txn.Request.Method, txn.Request.URL, txn.Response.StatusCode)
	}
	fmt.Printf("\nUse 'replayd play --cassette %s' to replay\n", cfg.Cassette)
	return nil
}

// splitPatterns splits a comma-separated pattern list, trimming
// whitespace and dropping empty entries.
func splitPatterns(s string) []string {
	if s == "" {
		return nil
	}
	var patterns []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// listenerAddr renders a listener address with localhost in place of a
// wildcard host, for copy-pasteable startup messages.
func listenerAddr(l net.Listener) string {
	addr := l.Addr().String()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "::" || host == "0.0.0.0" || host == "" {
		return net.JoinHostPort("localhost", port)
	}
	return addr
}
