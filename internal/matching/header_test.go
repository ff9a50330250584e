package matching

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareHeaders(t *testing.T) {
	tests := []struct {
		name     string
		incoming http.Header
		recorded http.Header
		ignore   []string
		match    bool
	}{
		{
			name:     "both empty",
			incoming: http.Header{},
			recorded: http.Header{},
			match:    true,
		},
		{
			name:     "identical",
			incoming: http.Header{"Accept": {"application/json"}},
			recorded: http.Header{"Accept": {"application/json"}},
			match:    true,
		},
		{
			name:     "value differs",
			incoming: http.Header{"Accept": {"text/html"}},
			recorded: http.Header{"Accept": {"application/json"}},
			match:    false,
		},
		{
			name:     "missing on incoming side",
			incoming: http.Header{},
			recorded: http.Header{"Accept": {"application/json"}},
			match:    false,
		},
		{
			name:     "extra on incoming side",
			incoming: http.Header{"Accept": {"application/json"}, "X-Extra": {"1"}},
			recorded: http.Header{"Accept": {"application/json"}},
			match:    false,
		},
		{
			name:     "names case-insensitive",
			incoming: http.Header{"Content-Type": {"text/plain"}},
			recorded: map[string][]string{"content-type": {"text/plain"}},
			match:    true,
		},
		{
			name:     "multi-value order irrelevant",
			incoming: http.Header{"Accept": {"text/plain", "application/json"}},
			recorded: http.Header{"Accept": {"application/json", "text/plain"}},
			match:    true,
		},
		{
			name:     "multi-value count matters",
			incoming: http.Header{"Accept": {"application/json"}},
			recorded: http.Header{"Accept": {"application/json", "application/json"}},
			match:    false,
		},
		{
			name:     "ignored name skipped",
			incoming: http.Header{"X-Trace": {"abc"}, "Accept": {"application/json"}},
			recorded: http.Header{"X-Trace": {"xyz"}, "Accept": {"application/json"}},
			ignore:   []string{"X-Trace"},
			match:    true,
		},
		{
			name:     "ignored name skipped when absent on one side",
			incoming: http.Header{"Accept": {"application/json"}},
			recorded: http.Header{"X-Trace": {"xyz"}, "Accept": {"application/json"}},
			ignore:   []string{"x-trace"},
			match:    true,
		},
		{
			name:     "values are case-sensitive",
			incoming: http.Header{"Accept": {"Application/JSON"}},
			recorded: http.Header{"Accept": {"application/json"}},
			match:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := compareHeaders(tt.incoming, tt.recorded, tt.ignore)
			if tt.match {
				assert.True(t, result.Matched, "reason: %s", result.Reason)
			} else {
				require.False(t, result.Matched)
				assert.Equal(t, "headers", result.Field)
				assert.NotEmpty(t, result.Reason)
			}
		})
	}
}

func TestCompareHeaders_MismatchReasonNamesHeader(t *testing.T) {
	incoming := http.Header{"Authorization": {"Bearer aaa"}}
	recorded := http.Header{"Authorization": {"Bearer bbb"}}

	result := compareHeaders(incoming, recorded, nil)
	require.False(t, result.Matched)
	assert.Contains(t, result.Reason, "Authorization")
	assert.Contains(t, result.Reason, "Bearer bbb")
	assert.Contains(t, result.Reason, "Bearer aaa")
}

func TestCanonicalHeaders(t *testing.T) {
	in := map[string][]string{
		"content-type": {"a"},
		"CONTENT-TYPE": {"b"},
		"X-thing":      {"c"},
	}

	out := canonicalHeaders(in)
	assert.ElementsMatch(t, []string{"a", "b"}, out["Content-Type"])
	assert.Equal(t, []string{"c"}, out["X-Thing"])
}
