// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults; Load layers file and env on top.
//   - Durations are expressed as integer seconds or milliseconds so that env
//     overrides stay plain numbers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Transport names accepted by Config.Transport.
const (
	TransportCSV    = "csv"
	TransportValues = "values"
)

// Numeric modes accepted by Config.NumericMode.
const (
	NumericNative  = "native"
	NumericInteger = "integer"
	NumericDecimal = "decimal"
)

// DefaultSpreadsheetID is the public sheet holding both datasets.
const DefaultSpreadsheetID = "1Yy9KB1YjXXNLOD1w_ySlFp452UXID29J8zN9aeszp9E"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Transport picks the remote source: csv (public export) or values (API key).
	Transport string `koanf:"transport"`

	SpreadsheetID  string `koanf:"spreadsheet_id"`
	ReferenceGID   string `koanf:"reference_gid"`
	TargetGID      string `koanf:"target_gid"`
	ReferenceSheet string `koanf:"reference_sheet"`
	TargetSheet    string `koanf:"target_sheet"`
	APIKey         string `koanf:"api_key"`
	CSVBaseURL     string `koanf:"csv_base_url"`
	ValuesBaseURL  string `koanf:"values_base_url"`

	// NumericMode overrides the transport's native number parsing.
	NumericMode string `koanf:"numeric_mode"`

	// CacheTTLSeconds is the freshness window of a cached snapshot.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// FetchTimeoutMS bounds a single remote fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`
	// FetchRatePerSec and FetchBurst configure the remote token bucket.
	FetchRatePerSec float64 `koanf:"fetch_rate_per_sec"`
	FetchBurst      int     `koanf:"fetch_burst"`

	// BreakerFailureThreshold consecutive failures open the circuit.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold"`
	// BreakerResetSeconds is how long the circuit stays open.
	BreakerResetSeconds int `koanf:"breaker_reset_seconds"`

	// StaticFallback enables the compiled-in catalog tier.
	StaticFallback bool `koanf:"static_fallback"`

	// RefreshQueueSize bounds the in-memory refresh job queue.
	RefreshQueueSize int `koanf:"refresh_queue_size"`
	// RefreshWorkerCount sets the number of refresh workers.
	RefreshWorkerCount int `koanf:"refresh_worker_count"`
	// RefreshIntervalSeconds schedules periodic refreshes; 0 disables.
	RefreshIntervalSeconds int `koanf:"refresh_interval_seconds"`

	// MaxSearchResults caps catalog search responses.
	MaxSearchResults int `koanf:"max_search_results"`

	// CORSAllowedOrigins is a comma separated origin list.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// RateLimitRequests per RateLimitWindowSeconds per client IP; 0 disables.
	RateLimitRequests      int `koanf:"rate_limit_requests"`
	RateLimitWindowSeconds int `koanf:"rate_limit_window_seconds"`

	// DocsScriptURL is the ReDoc bundle the /api-docs page loads; empty uses
	// the pinned CDN build.
	DocsScriptURL string `koanf:"docs_script_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		Transport:               TransportCSV,
		SpreadsheetID:           DefaultSpreadsheetID,
		ReferenceGID:            "0",
		TargetGID:               "1",
		ReferenceSheet:          "Sheet1",
		TargetSheet:             "Sheet2",
		CSVBaseURL:              "https://docs.google.com/spreadsheets/d",
		ValuesBaseURL:           "https://sheets.googleapis.com/v4/spreadsheets",
		NumericMode:             NumericNative,
		CacheTTLSeconds:         300,
		FetchTimeoutMS:          10_000,
		FetchRatePerSec:         2,
		FetchBurst:              4,
		BreakerFailureThreshold: 5,
		BreakerResetSeconds:     30,
		StaticFallback:          true,
		RefreshQueueSize:        64,
		RefreshWorkerCount:      2,
		RefreshIntervalSeconds:  0,
		MaxSearchResults:        8,
		CORSAllowedOrigins:      "*",
		RateLimitRequests:       120,
		RateLimitWindowSeconds:  60,
	}
}

// CacheTTL returns the cache freshness window.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// FetchTimeout returns the per-fetch HTTP timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// BreakerReset returns the open-circuit duration.
func (c *Config) BreakerReset() time.Duration {
	return time.Duration(c.BreakerResetSeconds) * time.Second
}

// RefreshInterval returns the periodic refresh interval; zero disables it.
func (c *Config) RefreshInterval() time.Duration {
	if c.RefreshIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// RateLimitWindow returns the per-IP rate limit window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// AllowedOrigins splits CORSAllowedOrigins into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Transport != TransportCSV && c.Transport != TransportValues:
		return fmt.Errorf("%w: transport must be %q or %q, got %q", ErrInvalidConfig, TransportCSV, TransportValues, c.Transport)
	case c.Transport == TransportValues && c.APIKey == "":
		return fmt.Errorf("%w: api_key is required for the values transport", ErrInvalidConfig)
	case c.SpreadsheetID == "":
		return fmt.Errorf("%w: spreadsheet_id must not be empty", ErrInvalidConfig)
	case c.NumericMode != NumericNative && c.NumericMode != NumericInteger && c.NumericMode != NumericDecimal:
		return fmt.Errorf("%w: unknown numeric_mode %q", ErrInvalidConfig, c.NumericMode)
	case c.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.FetchTimeoutMS <= 0:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	case c.RefreshQueueSize <= 0:
		return fmt.Errorf("%w: refresh_queue_size must be positive", ErrInvalidConfig)
	case c.RefreshWorkerCount <= 0:
		return fmt.Errorf("%w: refresh_worker_count must be positive", ErrInvalidConfig)
	case c.MaxSearchResults <= 0:
		return fmt.Errorf("%w: max_search_results must be positive", ErrInvalidConfig)
	}
	for _, raw := range []string{c.CSVBaseURL, c.ValuesBaseURL} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("%w: bad base url %q: %v", ErrInvalidConfig, raw, err)
		}
	}
	return nil
}
