// Package app assembles a MetricsService from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fortuna/sabermetrics/internal/config"
	"github.com/fortuna/sabermetrics/internal/fetch"
	"github.com/fortuna/sabermetrics/internal/ingest/espn"
	"github.com/fortuna/sabermetrics/internal/ingest/fangraphs"
	"github.com/fortuna/sabermetrics/internal/publisher"
	"github.com/fortuna/sabermetrics/internal/service"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/fortuna/sabermetrics/pkg/metrics"
)

// App holds the assembled service and the resources it owns.
type App struct {
	Service *service.MetricsService

	closers []func()
}

// Close releases the browser and Redis connections, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// New wires fetcher, sources and publisher according to cfg. Publishing is
// skipped when RedisURL is empty.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Manager) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{}

	var fetcher fetch.Fetcher
	switch cfg.Fetcher {
	case config.FetcherBrowser:
		b := fetch.NewBrowserFetcher(cfg.UserAgent, cfg.HTTPTimeout, log.Named("browser"), m)
		a.closers = append(a.closers, b.Close)
		fetcher = b
	default:
		fetcher = fetch.NewHTTPFetcher(fetch.Options{
			Client:     &http.Client{Timeout: cfg.HTTPTimeout},
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			MaxDelay:   cfg.RetryMaxDelay,
			Logger:     log.Named("fetch"),
			Metrics:    m,
		})
	}

	players, err := espn.New(fetcher, cfg.ESPNBaseURL, cfg.FetchConcurrency, log.Named("espn"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("espn client: %w", err)
	}
	weights := fangraphs.New(fetcher, cfg.FanGraphsURL, log.Named("fangraphs"))

	opts := service.Options{
		FIPConstantSource: cfg.FIPConstantSource,
		Timeout:           cfg.ComputeTimeout,
		Logger:            log.Named("service"),
		Metrics:           m,
	}

	if cfg.RedisURL != "" {
		pub, err := publisher.NewRedisPublisher(cfg.RedisURL, cfg.StreamName)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis publisher: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := pub.Close(); err != nil {
				log.Warn(ctx, "closing redis publisher", logger.Error(err))
			}
		})
		opts.Publisher = pub
		log.Info(ctx, "publishing results", logger.String("stream", pub.Stream()))
	}

	a.Service = service.NewMetricsService(players, weights, opts)
	return a, nil
}
