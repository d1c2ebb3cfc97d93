// Package config defines the service configuration and its loader.
package config

import (
	"time"

	"github.com/fortuna/sabermetrics/internal/service"
)

// Fetcher kinds.
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	RESTPort string `koanf:"rest_port"`
	WSPort   string `koanf:"ws_port"`

	// RedisURL enables publishing computed results when set.
	RedisURL   string `koanf:"redis_url"`
	StreamName string `koanf:"stream_name"`

	// Fetcher selects plain HTTP or headless Chrome.
	Fetcher     string        `koanf:"fetcher"`
	UserAgent   string        `koanf:"user_agent"`
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	// Retry policy for 5xx responses.
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay"`

	// FetchConcurrency bounds parallel league-average page fetches; 1 fetches
	// them one at a time.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// ComputeTimeout caps a whole metric computation; zero disables it.
	ComputeTimeout time.Duration `koanf:"compute_timeout"`

	// FIPConstantSource is "league" (derived from league averages) or
	// "published" (FanGraphs cFIP).
	FIPConstantSource string `koanf:"fip_constant_source"`

	ESPNBaseURL  string `koanf:"espn_base_url"`
	FanGraphsURL string `koanf:"fangraphs_url"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		RESTPort:          "8080",
		WSPort:            "8081",
		StreamName:        "metrics.computed.mlb",
		Fetcher:           FetcherHTTP,
		UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		HTTPTimeout:       15 * time.Second,
		MaxRetries:        10,
		RetryBaseDelay:    100 * time.Millisecond,
		RetryMaxDelay:     5 * time.Second,
		FetchConcurrency:  1,
		ComputeTimeout:    2 * time.Minute,
		FIPConstantSource: service.FIPConstantLeague,
		ESPNBaseURL:       "http://www.espn.com",
		FanGraphsURL:      "http://www.fangraphs.com/guts.aspx?type=cn",
	}
}
