package replay

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponder_ServesCurrentTransaction(t *testing.T) {
	responder, err := NewResponder(nil)
	require.NoError(t, err)
	defer func() { _ = responder.Close() }()

	txn := recordedTxn("GET", "http://api.example.com/users", 418, "short and stout")
	responder.SetCurrent(txn)

	resp, err := http.Get("http://" + responder.Addr() + "/anything")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, 418, resp.StatusCode)
	assert.Equal(t, "short and stout", string(body))
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "true", resp.Header.Get(HeaderReplayed))
}

func TestResponder_NoCurrentTransaction(t *testing.T) {
	responder, err := NewResponder(nil)
	require.NoError(t, err)
	defer func() { _ = responder.Close() }()

	req, err := http.NewRequest("GET", "http://"+responder.Addr()+"/x", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderRecognized, "false")
	req.Header.Set(HeaderMatchError, "nothing matched")
	req.Header.Set("X-Unrelated", "kept out")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	// Empty body, diagnostic headers echoed, everything else dropped.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
	assert.Equal(t, "false", resp.Header.Get(HeaderRecognized))
	assert.Equal(t, "nothing matched", resp.Header.Get(HeaderMatchError))
	assert.Empty(t, resp.Header.Get("X-Unrelated"))
}

func TestResponder_CurrentClearedBetweenServes(t *testing.T) {
	responder, err := NewResponder(nil)
	require.NoError(t, err)
	defer func() { _ = responder.Close() }()

	responder.SetCurrent(recordedTxn("GET", "http://api.example.com/a", 200, "a"))
	resp, err := http.Get("http://" + responder.Addr())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "true", resp.Header.Get(HeaderReplayed))

	responder.SetCurrent(nil)
	resp, err = http.Get("http://" + responder.Addr())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Empty(t, body)
	assert.Empty(t, resp.Header.Get(HeaderReplayed))
}

func TestResponder_CloseIdempotent(t *testing.T) {
	responder, err := NewResponder(nil)
	require.NoError(t, err)

	assert.NoError(t, responder.Close())
	assert.NoError(t, responder.Close())

	_, err = http.Get("http://" + responder.Addr())
	assert.Error(t, err)
}
