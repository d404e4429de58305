// Package config defines the server's initialization options bag (spec
// section 6): a single JSON object of recognized keys sent by the LSP
// client at startup, each with a concrete default.
package config

import "encoding/json"

// Options is the initialization options bag. Unrecognized keys are
// ignored by encoding/json's default unmarshal behavior; every field
// here has a zero-value-safe default applied by DefaultOptions, so a
// client that sends an empty object (or omits initializationOptions
// entirely) still gets a fully usable configuration.
type Options struct {
	DebounceMs      int    `json:"debounce_ms"`
	BatchSize       int    `json:"batch_size"`
	BatchTimeoutMs  int    `json:"batch_timeout_ms"`
	CacheDir        string `json:"cache_dir"`
	EnableEmbedded  bool   `json:"enable_embedded"`
	MaxRetries      int    `json:"max_retries"`
	DebugMode       bool   `json:"debug_mode"`
	JSONLogFormat   bool   `json:"json_log_format"`
}

// DefaultOptions returns the documented defaults: debounce_ms=150,
// batch_size=64, batch_timeout_ms=50, cache_dir=platform cache dir,
// enable_embedded=true, max_retries=3.
func DefaultOptions(platformCacheDir string) Options {
	return Options{
		DebounceMs:     150,
		BatchSize:      64,
		BatchTimeoutMs: 50,
		CacheDir:       platformCacheDir,
		EnableEmbedded: true,
		MaxRetries:     3,
	}
}

// Parse decodes raw initializationOptions JSON over a copy of defaults,
// so any key the client omits keeps its default value. A nil or empty
// raw payload returns defaults unchanged.
func Parse(raw json.RawMessage, defaults Options) (Options, error) {
	opts := defaults
	if len(raw) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return defaults, err
	}
	return opts, nil
}
