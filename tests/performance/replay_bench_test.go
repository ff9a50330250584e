package performance

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/record"
	"github.com/getmockd/replayd/pkg/replay"
)

// BenchmarkReplayRoundTrip measures a matched playback cycle through
// the client-side transport: compare against the queue head, rewrite
// to the local responder, serve the stored response.
func BenchmarkReplayRoundTrip(b *testing.B) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	// Record one exchange to replay.
	recordStore := cassette.NewStore()
	recordTransport, err := record.NewTransport(record.Options{Store: recordStore})
	if err != nil {
		b.Fatalf("record transport: %v", err)
	}
	recordClient := &http.Client{Transport: recordTransport}
	resp, err := recordClient.Get(upstream.URL + "/api/bench")
	if err != nil {
		b.Fatalf("recording failed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	txn := recordStore.Snapshot()[0]

	responder, err := replay.NewResponder(nil)
	if err != nil {
		b.Fatalf("responder: %v", err)
	}
	defer responder.Close()

	playStore := cassette.NewStore()
	playTransport, err := replay.NewTransport(replay.Options{
		Store:     playStore,
		Responder: responder,
	})
	if err != nil {
		b.Fatalf("replay transport: %v", err)
	}
	client := &http.Client{Transport: playTransport}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		playStore.PushBack(txn)
		resp, err := client.Get(upstream.URL + "/api/bench")
		if err != nil {
			b.Fatalf("replay failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.Header.Get(replay.HeaderReplayed) != "true" {
			b.Fatal("response did not come from the cassette")
		}
	}
}

// BenchmarkReplayHandler measures a matched playback cycle through the
// server-side handler.
func BenchmarkReplayHandler(b *testing.B) {
	txn := makeTransaction("/api/bench")
	txn.Request.Headers = nil

	store := cassette.NewStore()
	handler, err := replay.NewHandler(replay.HandlerOptions{Store: store})
	if err != nil {
		b.Fatalf("handler: %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	client := server.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.PushBack(txn)
		resp, err := client.Get(server.URL + "/api/bench")
		if err != nil {
			b.Fatalf("request failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b.Fatalf("status %d", resp.StatusCode)
		}
	}
}
