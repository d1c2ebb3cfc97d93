package espn

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fortuna/sabermetrics/internal/fetch"
	"github.com/fortuna/sabermetrics/internal/stats"
	"github.com/fortuna/sabermetrics/pkg/logger"
)

const (
	// BaseURL is the origin player and team pages are served from.
	BaseURL = "http://www.espn.com"

	searchPath = "/mlb/players"
	statsLabel = "Stats"
)

// Client scrapes ESPN MLB player and team statistics pages.
type Client struct {
	fetcher     fetch.Fetcher
	baseURL     *url.URL
	concurrency int
	log         logger.Logger
}

// New creates a client rooted at baseURL. An empty baseURL means BaseURL.
func New(fetcher fetch.Fetcher, baseURL string, concurrency int, log logger.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = BaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing ESPN base URL %q: %w", baseURL, err)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		fetcher:     fetcher,
		baseURL:     u,
		concurrency: concurrency,
		log:         log,
	}, nil
}

// SearchURL is the all-time player directory search for name.
func (c *Client) SearchURL(name string) string {
	return fmt.Sprintf("%s%s?search=%s&alltime=true&statusId=1", c.baseURL, searchPath, url.QueryEscape(name))
}

// LocatePlayer finds a player's statistics page via the directory search.
// A search page without a Stats link yields stats.ErrPlayerNotFound.
func (c *Client) LocatePlayer(ctx context.Context, name string) (*goquery.Document, error) {
	searchURL := c.SearchURL(name)
	page, err := c.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", name, err)
	}

	link := page.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == statsLabel
	}).First()
	if link.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", stats.ErrPlayerNotFound, name)
	}
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil, fmt.Errorf("%w: stats link for %q has no href", stats.ErrParse, name)
	}

	statsURL, err := c.resolve(href)
	if err != nil {
		return nil, err
	}
	c.log.Debug(ctx, "located player", logger.String("player", name), logger.String("url", statsURL))

	doc, err := c.fetcher.Fetch(ctx, statsURL)
	if err != nil {
		return nil, fmt.Errorf("fetching stats page for %q: %w", name, err)
	}
	return doc, nil
}

// PlayerSeason locates the player and extracts one season with layout.
func (c *Client) PlayerSeason(ctx context.Context, name, season string, layout Layout) (stats.Record, error) {
	doc, err := c.LocatePlayer(ctx, name)
	if err != nil {
		return nil, err
	}
	rec, err := ExtractSeason(doc, season, layout)
	if err != nil {
		return nil, fmt.Errorf("%q %s: %w", name, season, err)
	}
	return rec, nil
}

func (c *Client) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w: bad stats link %q: %v", stats.ErrParse, href, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}
