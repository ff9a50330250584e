package integration

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/replayd/pkg/cassette"
	"github.com/getmockd/replayd/pkg/replay"
	"github.com/getmockd/replayd/pkg/session"
)

// newUpstream starts a backend with a small API and a hit counter, so
// playback tests can prove the network was never touched.
func newUpstream(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"users":[{"id":1,"name":"ana"}]}`)
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":2,"echo":%q}`, string(body))
	})
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, "q=%s", r.URL.Query().Get("q"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestRecordThenReplay(t *testing.T) {
	upstream, hits := newUpstream(t)
	cassettePath := filepath.Join(t.TempDir(), "session.yaml")

	// Record a three-call session.
	rec, err := session.New(session.Options{
		Mode:     session.ModeRecord,
		Cassette: cassettePath,
	})
	require.NoError(t, err)

	client := rec.Client()
	resp, err := client.Get(upstream.URL + "/users")
	require.NoError(t, err)
	usersBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	resp, err = client.Post(upstream.URL+"/users", "application/json", strings.NewReader(`{"name":"bo"}`))
	require.NoError(t, err)
	createdBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = client.Get(upstream.URL + "/search?q=go")
	require.NoError(t, err)
	searchBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	require.NoError(t, rec.Close())
	require.Equal(t, int64(3), hits.Load())

	// Replay the same calls; the upstream must stay untouched.
	play, err := session.New(session.Options{
		Mode:     session.ModePlayback,
		Cassette: cassettePath,
	})
	require.NoError(t, err)
	defer play.Close()

	client = play.Client()
	resp, err = client.Get(upstream.URL + "/users")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(usersBody), string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "true", resp.Header.Get(replay.HeaderReplayed))

	resp, err = client.Post(upstream.URL+"/users", "application/json", strings.NewReader(`{"name":"bo"}`))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, string(createdBody), string(body))

	resp, err = client.Get(upstream.URL + "/search?q=go")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, string(searchBody), string(body))

	assert.Equal(t, 0, play.Remaining())
	assert.Equal(t, int64(3), hits.Load(), "playback must not touch the upstream")
}

func TestReplayOutOfOrder(t *testing.T) {
	upstream, _ := newUpstream(t)
	cassettePath := filepath.Join(t.TempDir(), "session.yaml")

	rec, err := session.New(session.Options{Mode: session.ModeRecord, Cassette: cassettePath})
	require.NoError(t, err)
	client := rec.Client()
	for _, q := range []string{"a", "b", "c"} {
		resp, err := client.Get(upstream.URL + "/search?q=" + q)
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	require.NoError(t, rec.Close())

	play, err := session.New(session.Options{Mode: session.ModePlayback, Cassette: cassettePath})
	require.NoError(t, err)
	defer play.Close()
	client = play.Client()

	// First recorded call replays.
	resp, err := client.Get(upstream.URL + "/search?q=a")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "q=a", string(body))

	// Skipping ahead to the third call fails: only the head is compared.
	_, err = client.Get(upstream.URL + "/search?q=c")
	require.Error(t, err)
	var unmatched *replay.UnmatchedError
	require.ErrorAs(t, err, &unmatched)

	// The head went back on the queue, so the recorded order still works.
	resp, err = client.Get(upstream.URL + "/search?q=b")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "q=b", string(body))

	resp, err = client.Get(upstream.URL + "/search?q=c")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "q=c", string(body))

	assert.Equal(t, 0, play.Remaining())
}

func TestQueryOrderDoesNotAffectReplay(t *testing.T) {
	upstream, _ := newUpstream(t)
	cassettePath := filepath.Join(t.TempDir(), "session.yaml")

	rec, err := session.New(session.Options{Mode: session.ModeRecord, Cassette: cassettePath})
	require.NoError(t, err)
	resp, err := rec.Client().Get(upstream.URL + "/search?q=go&page=2")
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.NoError(t, rec.Close())

	play, err := session.New(session.Options{Mode: session.ModePlayback, Cassette: cassettePath})
	require.NoError(t, err)
	defer play.Close()

	resp, err = play.Client().Get(upstream.URL + "/search?page=2&q=go")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "q=go", string(body))
}

func TestIgnoreHeadersOnReplay(t *testing.T) {
	upstream, _ := newUpstream(t)
	cassettePath := filepath.Join(t.TempDir(), "session.yaml")

	rec, err := session.New(session.Options{Mode: session.ModeRecord, Cassette: cassettePath})
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodGet, upstream.URL+"/users", nil)
	req.Header.Set("X-Trace", "trace-one")
	resp, err := rec.Client().Do(req)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.NoError(t, rec.Close())

	t.Run("without exclusion the trace header blocks the match", func(t *testing.T) {
		play, err := session.New(session.Options{Mode: session.ModePlayback, Cassette: cassettePath})
		require.NoError(t, err)
		defer play.Close()

		req, _ := http.NewRequest(http.MethodGet, upstream.URL+"/users", nil)
		req.Header.Set("X-Trace", "trace-two")
		_, err = play.Client().Do(req)
		var unmatched *replay.UnmatchedError
		require.ErrorAs(t, err, &unmatched)
		assert.Contains(t, unmatched.Reason, "X-Trace")
	})

	t.Run("with exclusion the differing value matches", func(t *testing.T) {
		play, err := session.New(session.Options{
			Mode:          session.ModePlayback,
			Cassette:      cassettePath,
			IgnoreHeaders: []string{"X-Trace"},
		})
		require.NoError(t, err)
		defer play.Close()

		req, _ := http.NewRequest(http.MethodGet, upstream.URL+"/users", nil)
		req.Header.Set("X-Trace", "trace-two")
		resp, err := play.Client().Do(req)
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("all sentinel ignores every header", func(t *testing.T) {
		play, err := session.New(session.Options{
			Mode:          session.ModePlayback,
			Cassette:      cassettePath,
			IgnoreHeaders: []string{"all"},
		})
		require.NoError(t, err)
		defer play.Close()

		req, _ := http.NewRequest(http.MethodGet, upstream.URL+"/users", nil)
		req.Header.Set("X-Trace", "different")
		req.Header.Set("X-Extra", "also different")
		resp, err := play.Client().Do(req)
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestIgnoreBodyOnReplay(t *testing.T) {
	upstream, _ := newUpstream(t)
	cassettePath := filepath.Join(t.TempDir(), "session.yaml")

	rec, err := session.New(session.Options{Mode: session.ModeRecord, Cassette: cassettePath})
	require.NoError(t, err)
	resp, err := rec.Client().Post(upstream.URL+"/users", "application/json", strings.NewReader(`{"name":"bo"}`))
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.NoError(t, rec.Close())

	play, err := session.New(session.Options{
		Mode:       session.ModePlayback,
		Cassette:   cassettePath,
		IgnoreBody: true,
	})
	require.NoError(t, err)
	defer play.Close()

	resp, err = play.Client().Post(upstream.URL+"/users", "application/json", strings.NewReader(`{"name":"completely different"}`))
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRecordingIsRepeatable(t *testing.T) {
	upstream, _ := newUpstream(t)
	tmpDir := t.TempDir()
	first := filepath.Join(tmpDir, "first.yaml")
	second := filepath.Join(tmpDir, "second.yaml")

	runSession := func(path string) {
		s, err := session.New(session.Options{Mode: session.ModeRecord, Cassette: path})
		require.NoError(t, err)
		client := s.Client()

		resp, err := client.Get(upstream.URL + "/users")
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		resp, err = client.Post(upstream.URL+"/users", "application/json", strings.NewReader(`{"name":"bo"}`))
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		require.NoError(t, s.Close())
	}
	runSession(first)
	runSession(second)

	a, err := cassette.ReadFile(first)
	require.NoError(t, err)
	b, err := cassette.ReadFile(second)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Request.Method, b[i].Request.Method)
		assert.Equal(t, a[i].Request.URL, b[i].Request.URL)
		assert.Equal(t, a[i].Request.Headers, b[i].Request.Headers)
		assert.Equal(t, string(a[i].Request.Body), string(b[i].Request.Body))
		assert.Equal(t, a[i].Response.StatusCode, b[i].Response.StatusCode)
		assert.Equal(t, string(a[i].Response.Body), string(b[i].Response.Body))
	}
}

func TestSerializedCassetteRoundTrip(t *testing.T) {
	upstream, _ := newUpstream(t)
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "session.yaml")

	rec, err := session.New(session.Options{Mode: session.ModeRecord, Cassette: yamlPath})
	require.NoError(t, err)
	client := rec.Client()
	resp, err := client.Get(upstream.URL + "/users")
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	resp, err = client.Post(upstream.URL+"/users", "application/json", strings.NewReader(`{"name":"bo"}`))
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.NoError(t, rec.Close())

	original, err := cassette.ReadFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, original, 2)

	// Write back out through the other format and compare byte-exact.
	jsonPath := filepath.Join(tmpDir, "session.json")
	require.NoError(t, cassette.WriteFile(jsonPath, original))
	reread, err := cassette.ReadFile(jsonPath)
	require.NoError(t, err)

	require.Equal(t, len(original), len(reread))
	for i := range original {
		assert.Equal(t, original[i].ID, reread[i].ID)
		assert.Equal(t, original[i].Request.Method, reread[i].Request.Method)
		assert.Equal(t, original[i].Request.URL, reread[i].Request.URL)
		assert.Equal(t, original[i].Request.Headers, reread[i].Request.Headers)
		assert.Equal(t, []byte(original[i].Request.Body), []byte(reread[i].Request.Body))
		assert.Equal(t, original[i].Response.StatusCode, reread[i].Response.StatusCode)
		assert.Equal(t, original[i].Response.Headers, reread[i].Response.Headers)
		assert.Equal(t, []byte(original[i].Response.Body), []byte(reread[i].Response.Body))
	}
}
