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
	"syscall"

	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/cli/internal/output"
	"github.com/getmockd/replayd/pkg/replay"
)

// RunPlay handles the play command: a server that answers requests
// with the recorded responses from a cassette, in recorded order.
func RunPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)

	listen := fs.String("listen", "", "Address to listen on (default :8080)")
	cassettePath := fs.String("cassette", "", "Cassette file to replay (required)")
	fs.StringVar(cassettePath, "c", "", "Cassette file (shorthand)")
	policy := fs.String("policy", "", "Unmatched request policy: exception, null, or fallback (default exception)")
	target := fs.String("target", "", "Upstream origin for the fallback policy")
	fs.StringVar(target, "t", "", "Upstream origin (shorthand)")

	var ignoreHeaders stringSliceFlag
	fs.Var(&ignoreHeaders, "ignore-header", "Header to exclude from comparison (can be specified multiple times; 'all' disables header comparison)")
	ignoreBody := fs.Bool("ignore-body", false, "Exclude bodies from comparison")

	configPath := fs.String("config", "", "Config file path (default: replayd.yaml if present)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (text, json)")
	logFile := fs.String("log-file", "", "Also write logs to this file")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: replayd play [flags]

Serve recorded responses from a cassette. Each request is compared
against the next recorded transaction; a match consumes it and answers
with the stored response. What happens to requests that do not match
is decided by the policy:

  exception   Answer 404 with a JSON error (default)
  null        Answer 200 with an empty body
  fallback    Forward to the live target and relay its response

Flags:
      --listen <addr>        Address to listen on (default :8080)
  -c, --cassette <path>      Cassette file to replay (required)
      --policy <name>        Unmatched request policy (default exception)
  -t, --target <url>         Upstream origin for the fallback policy
      --ignore-header <name> Header to exclude from comparison (repeatable;
                             'all' disables header comparison)
      --ignore-body          Exclude bodies from comparison
      --config <path>        Config file path (default: replayd.yaml if present)
      --log-level            Log level (debug, info, warn, error)
      --log-format           Log format (text, json)
      --log-file             Also write logs to this file

Examples:
  # Replay a recorded session
  replayd play --cassette session.yaml

  # Tolerate varying request IDs
  replayd play -c session.yaml --ignore-header X-Request-Id

  # Forward anything unrecognized to the live API
  replayd play -c session.yaml --policy fallback --target https://api.example.com
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
	if seen["cassette"] || seen["c"] {
		cfg.Cassette = *cassettePath
	}
	if seen["policy"] {
		cfg.Policy = *policy
	}
	if seen["target"] || seen["t"] {
		cfg.Target = *target
	}
	if seen["ignore-header"] {
		cfg.IgnoreHeaders = ignoreHeaders
	}
	if seen["ignore-body"] {
		cfg.IgnoreBody = *ignoreBody
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

	if cfg.Cassette == "" {
		return errors.New("--cassette is required (or set cassette in replayd.yaml)")
	}
	cfg.Mode = "playback"
	if err := cfg.Validate(); err != nil {
		return err
	}

	pol, err := replay.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}
	var targetURL *url.URL
	if pol == replay.PolicyFallback {
		if cfg.Target == "" {
			return errors.New("--target is required with the fallback policy")
		}
		targetURL, err = url.Parse(cfg.Target)
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", cfg.Target, err)
		}
	}

	txns, err := cassette.ReadFile(cfg.Cassette)
	if err != nil {
		return err
	}
	total := len(txns)
	store := cassette.NewStore()
	store.Load(txns)

	log, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	handler, err := replay.NewHandler(replay.HandlerOptions{
		Store:         store,
		Policy:        pol,
		IgnoreHeaders: cfg.IgnoreHeaders,
		IgnoreBody:    cfg.IgnoreBody,
		Target:        targetURL,
		Logger:        log,
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

	fmt.Printf("Playback server running on http://%s\n", listenerAddr(listener))
	fmt.Printf("Cassette: %s (%d transactions)\n", cfg.Cassette, total)
	fmt.Printf("Policy:   %s\n", pol)
	fmt.Println("Press Ctrl+C to stop")

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	if err := server.Close(); err != nil {
		output.Warn("server shutdown error: %v", err)
	}

	remaining := handler.Remaining()
	switch {
	case remaining == 0:
		fmt.Printf("All %d transactions replayed\n", total)
	default:
		fmt.Printf("%d of %d transactions were never requested\n", remaining, total)
	}
	return nil
}
