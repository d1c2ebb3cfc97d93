package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/fortuna/sabermetrics/internal/stats"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/fortuna/sabermetrics/pkg/metrics"
)

// BrowserFetcher renders pages in headless Chrome before parsing them, for
// markup that is assembled client-side.
type BrowserFetcher struct {
	timeout time.Duration
	log     logger.Logger
	metrics *metrics.Manager

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowserFetcher starts a Chrome allocator. Close releases it.
func NewBrowserFetcher(userAgent string, timeout time.Duration, log logger.Logger, m *metrics.Manager) *BrowserFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BrowserFetcher{
		timeout:  timeout,
		log:      log,
		metrics:  m,
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Fetch navigates to url and parses the rendered document.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	start := time.Now()

	browserCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, b.timeout)
	defer cancelTimeout()

	// tie the tab to the caller's context as well
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		b.metrics.RecordFetch(0, time.Since(start))
		return nil, fmt.Errorf("%w: chromedp %s: %v", stats.ErrTransport, url, err)
	}
	if html == "" {
		b.metrics.RecordFetch(0, time.Since(start))
		return nil, fmt.Errorf("%w: empty HTML from %s", stats.ErrTransport, url)
	}

	b.metrics.RecordFetch(200, time.Since(start))
	b.log.Debug(ctx, "rendered page", logger.String("url", url))
	return ParseHTML(html)
}
