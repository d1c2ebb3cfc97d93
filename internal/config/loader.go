package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fortuna/sabermetrics/internal/service"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SABR_"

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. YAML file named by SABR_CONFIG, if set
//  3. environment variables prefixed SABR_
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SABR_MAX_RETRIES -> max_retries; underscores are kept to match the tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of the module cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	case c.RetryBaseDelay < 0 || c.RetryMaxDelay < 0:
		return fmt.Errorf("%w: retry delays must not be negative", ErrInvalidConfig)
	case c.FetchConcurrency < 1:
		return fmt.Errorf("%w: fetch_concurrency must be at least 1", ErrInvalidConfig)
	case c.Fetcher != FetcherHTTP && c.Fetcher != FetcherBrowser:
		return fmt.Errorf("%w: unknown fetcher %q", ErrInvalidConfig, c.Fetcher)
	case c.FIPConstantSource != service.FIPConstantLeague && c.FIPConstantSource != service.FIPConstantPublished:
		return fmt.Errorf("%w: unknown fip_constant_source %q", ErrInvalidConfig, c.FIPConstantSource)
	case c.ESPNBaseURL == "" || c.FanGraphsURL == "":
		return fmt.Errorf("%w: source URLs must not be empty", ErrInvalidConfig)
	}
	return nil
}
