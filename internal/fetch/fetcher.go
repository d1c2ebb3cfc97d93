// Package fetch retrieves pages and parses them into goquery documents.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fortuna/sabermetrics/internal/stats"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/fortuna/sabermetrics/pkg/metrics"
)

// Fetcher retrieves a URL as a parsed HTML document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// retryable are the statuses worth another attempt.
var retryable = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Options configures an HTTPFetcher.
type Options struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     logger.Logger
	Metrics    *metrics.Manager
}

// HTTPFetcher GETs pages over plain HTTP, retrying transient 5xx responses
// with exponential backoff.
type HTTPFetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        logger.Logger
	metrics    *metrics.Manager

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHTTPFetcher creates a fetcher from opts, filling unset fields.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPFetcher{
		client:     client,
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		maxDelay:   opts.MaxDelay,
		log:        log,
		metrics:    opts.Metrics,
		sleep:      sleepCtx,
	}
}

// Fetch performs the GET. Exhausted retries, non-2xx statuses and network
// errors all surface as stats.ErrTransport.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		status, doc, err := f.once(ctx, url)
		if err == nil {
			f.metrics.RecordFetch(status, time.Since(start))
			f.log.Debug(ctx, "fetched page", logger.String("url", url), logger.Int("attempts", attempt+1))
			return doc, nil
		}
		if !retryable[status] || attempt >= f.maxRetries {
			f.metrics.RecordFetch(status, time.Since(start))
			if retryable[status] {
				return nil, fmt.Errorf("%w: GET %s: status %d after %d attempts", stats.ErrTransport, url, status, attempt+1)
			}
			return nil, err
		}

		delay := f.backoff(attempt)
		f.metrics.RecordRetry()
		f.log.Warn(ctx, "retrying page fetch",
			logger.String("url", url),
			logger.Int("status", status),
			logger.Int("attempt", attempt+1),
			logger.String("delay", delay.String()))
		if err := f.sleep(ctx, delay); err != nil {
			f.metrics.RecordFetch(status, time.Since(start))
			return nil, fmt.Errorf("%w: GET %s: %v", stats.ErrTransport, url, err)
		}
	}
}

// backoff is base * 2^attempt, capped at maxDelay.
func (f *HTTPFetcher) backoff(attempt int) time.Duration {
	d := f.baseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if f.maxDelay > 0 && d >= f.maxDelay {
			return f.maxDelay
		}
	}
	if f.maxDelay > 0 && d > f.maxDelay {
		return f.maxDelay
	}
	return d
}

func (f *HTTPFetcher) once(ctx context.Context, url string) (int, *goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: building request for %s: %v", stats.ErrTransport, url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: GET %s: %v", stats.ErrTransport, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil, fmt.Errorf("%w: GET %s: status %d", stats.ErrTransport, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: reading %s: %v", stats.ErrTransport, url, err)
	}
	return resp.StatusCode, doc, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ParseHTML converts raw HTML into a document.
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %v", stats.ErrParse, err)
	}
	return doc, nil
}
