package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions("/tmp/cache")
	require.Equal(t, 150, opts.DebounceMs)
	require.Equal(t, 64, opts.BatchSize)
	require.Equal(t, 50, opts.BatchTimeoutMs)
	require.Equal(t, "/tmp/cache", opts.CacheDir)
	require.True(t, opts.EnableEmbedded)
	require.Equal(t, 3, opts.MaxRetries)
}

func TestParseOverridesOnlyGivenKeys(t *testing.T) {
	defaults := DefaultOptions("/tmp/cache")
	opts, err := Parse([]byte(`{"debounce_ms": 300, "enable_embedded": false}`), defaults)
	require.NoError(t, err)
	require.Equal(t, 300, opts.DebounceMs)
	require.False(t, opts.EnableEmbedded)
	require.Equal(t, 64, opts.BatchSize) // untouched default
}

func TestParseEmptyReturnsDefaults(t *testing.T) {
	defaults := DefaultOptions("/tmp/cache")
	opts, err := Parse(nil, defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, opts)
}

func TestParseInvalidJSONReturnsError(t *testing.T) {
	defaults := DefaultOptions("/tmp/cache")
	_, err := Parse([]byte(`not json`), defaults)
	require.Error(t, err)
}
