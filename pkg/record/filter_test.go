package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFilter(t *testing.T, cfg FilterConfig) *Filter {
	t.Helper()
	f, err := NewFilter(cfg)
	require.NoError(t, err)
	return f
}

func TestFilter_EmptyRecordsEverything(t *testing.T) {
	f := mustFilter(t, FilterConfig{})
	assert.True(t, f.ShouldRecord("GET", "api.example.com", "/users", 200))
	assert.True(t, f.ShouldRecord("DELETE", "other.test", "/", 500))
}

func TestFilter_ShouldRecord(t *testing.T) {
	tests := []struct {
		name   string
		cfg    FilterConfig
		method string
		host   string
		path   string
		status int
		want   bool
	}{
		{
			name: "include host match",
			cfg:  FilterConfig{IncludeHosts: []string{"api.example.com"}},
			host: "api.example.com", path: "/users", status: 200,
			want: true,
		},
		{
			name: "include host no match",
			cfg:  FilterConfig{IncludeHosts: []string{"api.example.com"}},
			host: "other.example.com", path: "/users", status: 200,
			want: false,
		},
		{
			name: "include host wildcard",
			cfg:  FilterConfig{IncludeHosts: []string{"*.example.com"}},
			host: "api.example.com", path: "/users", status: 200,
			want: true,
		},
		{
			name: "host matching ignores case",
			cfg:  FilterConfig{IncludeHosts: []string{"API.Example.COM"}},
			host: "api.example.com", path: "/", status: 200,
			want: true,
		},
		{
			name: "exclude host wins over include",
			cfg: FilterConfig{
				IncludeHosts: []string{"*.example.com"},
				ExcludeHosts: []string{"internal.example.com"},
			},
			host: "internal.example.com", path: "/users", status: 200,
			want: false,
		},
		{
			name: "include path match",
			cfg:  FilterConfig{IncludePaths: []string{"/api/**"}},
			host: "example.com", path: "/api/v1/users", status: 200,
			want: true,
		},
		{
			name: "include path doublestar crosses segments",
			cfg:  FilterConfig{IncludePaths: []string{"/api/**"}},
			host: "example.com", path: "/api/v1/users/42/orders", status: 200,
			want: true,
		},
		{
			name: "include path no match",
			cfg:  FilterConfig{IncludePaths: []string{"/api/**"}},
			host: "example.com", path: "/health", status: 200,
			want: false,
		},
		{
			name: "exclude path match",
			cfg:  FilterConfig{ExcludePaths: []string{"/health", "/metrics"}},
			host: "example.com", path: "/metrics", status: 200,
			want: false,
		},
		{
			name: "exclude path single star stays in segment",
			cfg:  FilterConfig{ExcludePaths: []string{"/static/*"}},
			host: "example.com", path: "/static/css/site.css", status: 200,
			want: true,
		},
		{
			name: "condition true",
			cfg:  FilterConfig{Condition: "status < 500"},
			host: "example.com", path: "/", status: 200,
			want: true,
		},
		{
			name: "condition false",
			cfg:  FilterConfig{Condition: "status < 500"},
			host: "example.com", path: "/", status: 503,
			want: false,
		},
		{
			name:   "condition sees method",
			cfg:    FilterConfig{Condition: `method != "OPTIONS"`},
			method: "OPTIONS", host: "example.com", path: "/", status: 200,
			want: false,
		},
		{
			name: "condition after globs",
			cfg: FilterConfig{
				IncludeHosts: []string{"api.example.com"},
				Condition:    "status == 200",
			},
			host: "api.example.com", path: "/", status: 404,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFilter(t, tt.cfg)
			method := tt.method
			if method == "" {
				method = "GET"
			}
			got := f.ShouldRecord(method, tt.host, tt.path, tt.status)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFilter_InvalidPattern(t *testing.T) {
	tests := []struct {
		name string
		cfg  FilterConfig
	}{
		{"bad include host", FilterConfig{IncludeHosts: []string{"[invalid"}}},
		{"bad exclude host", FilterConfig{ExcludeHosts: []string{"[invalid"}}},
		{"bad include path", FilterConfig{IncludePaths: []string{"/a/[b"}}},
		{"bad exclude path", FilterConfig{ExcludePaths: []string{"/a/[b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFilter(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewFilter_InvalidCondition(t *testing.T) {
	_, err := NewFilter(FilterConfig{Condition: "status <"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "condition")
}

func TestNewFilter_NonBoolCondition(t *testing.T) {
	_, err := NewFilter(FilterConfig{Condition: "status + 1"})
	assert.Error(t, err)
}

func TestFilterConfig_Empty(t *testing.T) {
	assert.True(t, FilterConfig{}.Empty())
	assert.False(t, FilterConfig{IncludeHosts: []string{"a"}}.Empty())
	assert.False(t, FilterConfig{ExcludePaths: []string{"/x"}}.Empty())
	assert.False(t, FilterConfig{Condition: "true"}.Empty())
}
