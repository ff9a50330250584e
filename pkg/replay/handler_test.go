package replay

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/replayd/pkg/cassette"
)

func newPlaybackServer(t *testing.T, txns []*cassette.Transaction, opts HandlerOptions) (*httptest.Server, *Handler) {
	t.Helper()

	store := cassette.NewStore()
	store.Load(txns)
	opts.Store = store

	h, err := NewHandler(opts)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, h
}

func TestNewHandler_Validation(t *testing.T) {
	_, err := NewHandler(HandlerOptions{})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{Store: cassette.NewStore(), Policy: Policy("bogus")})
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	// Fallback needs somewhere to forward to.
	_, err = NewHandler(HandlerOptions{Store: cassette.NewStore(), Policy: PolicyFallback})
	assert.Error(t, err)
}

func TestHandler_ServesRecordedSequence(t *testing.T) {
	srv, h := newPlaybackServer(t, []*cassette.Transaction{
		recordedTxn("GET", "https://api.example.com/users?page=1", 200, `[{"id":1}]`),
		recordedTxn("GET", "https://api.example.com/users/1", 200, `{"id":1}`),
	}, HandlerOptions{})

	// The recorded origin differs from the playback server; only path
	// and query count.
	resp, err := http.Get(srv.URL + "/users?page=1")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `[{"id":1}]`, string(body))
	assert.Equal(t, "true", resp.Header.Get(HeaderReplayed))

	resp, err = http.Get(srv.URL + "/users/1")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, `{"id":1}`, string(body))

	assert.Equal(t, 0, h.Remaining())
}

func TestHandler_OutOfOrderRequestRejected(t *testing.T) {
	srv, h := newPlaybackServer(t, []*cassette.Transaction{
		recordedTxn("GET", "https://api.example.com/a", 200, "first"),
		recordedTxn("GET", "https://api.example.com/b", 200, "second"),
	}, HandlerOptions{})

	// Out of order: rejected, queue intact.
	resp, err := http.Get(srv.URL + "/b")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "false", resp.Header.Get(HeaderRecognized))
	assert.Contains(t, resp.Header.Get(HeaderMatchError), "path")

	var errResp map[string]string
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "no_match", errResp["error"])
	assert.Equal(t, 2, h.Remaining())

	// Recorded order still plays.
	for _, want := range []struct{ path, body string }{
		{"/a", "first"},
		{"/b", "second"},
	} {
		resp, err := http.Get(srv.URL + want.path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, want.body, string(body))
	}
}

func TestHandler_Exhausted(t *testing.T) {
	srv, _ := newPlaybackServer(t, nil, HandlerOptions{})

	resp, err := http.Get(srv.URL + "/anything")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(HeaderMatchError), "no transactions remaining")
}

func TestHandler_PolicyNull(t *testing.T) {
	srv, h := newPlaybackServer(t, []*cassette.Transaction{
		recordedTxn("GET", "https://api.example.com/users", 200, "data"),
	}, HandlerOptions{Policy: PolicyNull})

	resp, err := http.Get(srv.URL + "/other")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
	assert.Equal(t, "false", resp.Header.Get(HeaderRecognized))
	assert.NotEmpty(t, resp.Header.Get(HeaderMatchError))
	assert.Equal(t, 1, h.Remaining())
}

func TestHandler_PolicyFallback(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backend", "yes")
		_, _ = w.Write([]byte("live from " + r.URL.Path))
	}))
	defer backend.Close()

	target, err := url.Parse(backend.URL)
	require.NoError(t, err)

	srv, h := newPlaybackServer(t, []*cassette.Transaction{
		recordedTxn("GET", "https://api.example.com/users", 200, "data"),
	}, HandlerOptions{Policy: PolicyFallback, Target: target})

	resp, err := http.Get(srv.URL + "/unrecorded")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "live from /unrecorded", string(body))
	assert.Equal(t, "yes", resp.Header.Get("X-Backend"))
	assert.Equal(t, "false", resp.Header.Get(HeaderRecognized))
	assert.Equal(t, 1, h.Remaining())
}

func TestHandler_BodyComparison(t *testing.T) {
	recorded := recordedTxn("POST", "https://api.example.com/items", 201, "created")
	recorded.Request.Headers = http.Header{"Content-Type": {"application/json"}}
	recorded.Request.Body = cassette.Body(`{"name":"widget"}`)

	srv, _ := newPlaybackServer(t, []*cassette.Transaction{recorded}, HandlerOptions{})

	// Different body bytes: rejected.
	resp, err := http.Post(srv.URL+"/items", "application/json",
		bytes.NewReader([]byte(`{"name":"gadget"}`)))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(HeaderMatchError), "body")

	// Exact bytes: served.
	resp, err = http.Post(srv.URL+"/items", "application/json",
		bytes.NewReader([]byte(`{"name":"widget"}`)))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "created", string(body))
}
