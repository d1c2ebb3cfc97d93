package espn

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fortuna/sabermetrics/internal/stats"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// LeaguePage identifies one team-statistics summary page.
type LeaguePage string

// Team statistics pages.
const (
	BattingStandard  LeaguePage = "standard"
	BattingExpanded  LeaguePage = "expanded"
	BattingExpanded2 LeaguePage = "expanded-2"
	Pitching         LeaguePage = "pitching"
)

// Page sets requested by the metrics.
var (
	FIPConstantPages = []LeaguePage{BattingStandard, BattingExpanded, Pitching}
	AllLeaguePages   = []LeaguePage{BattingStandard, BattingExpanded, BattingExpanded2, Pitching}
)

const (
	leagueHeaderLabel = "LEAGUE AVERAGES"
	leagueValuesLabel = "Major League Baseball"
)

// LeagueURL returns the team statistics URL for page and season.
func (c *Client) LeagueURL(page LeaguePage, season string) string {
	switch page {
	case Pitching:
		return fmt.Sprintf("%s/mlb/stats/team/_/stat/pitching/year/%s", c.baseURL, season)
	case BattingStandard:
		return fmt.Sprintf("%s/mlb/stats/team/_/stat/batting/year/%s", c.baseURL, season)
	default:
		return fmt.Sprintf("%s/mlb/stats/team/_/stat/batting/year/%s/type/%s", c.baseURL, season, page)
	}
}

// LeagueAverages fetches every page in pages and merges their
// Major League Baseball rows into one record. Pages are fetched in parallel,
// bounded by the client's concurrency, and merged in the order given.
func (c *Client) LeagueAverages(ctx context.Context, season string, pages []LeaguePage) (stats.Record, error) {
	parts := make([]stats.Record, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, page := range pages {
		g.Go(func() error {
			pageURL := c.LeagueURL(page, season)
			doc, err := c.fetcher.Fetch(gctx, pageURL)
			if err != nil {
				return fmt.Errorf("league %s page: %w", page, err)
			}
			rec, err := ExtractLeagueAverages(doc)
			if err != nil {
				return fmt.Errorf("league %s page %s: %w", page, pageURL, err)
			}
			parts[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged, err := stats.Merge(parts...)
	if err != nil {
		return nil, fmt.Errorf("merging league averages for %s: %w", season, err)
	}
	c.log.Debug(ctx, "league averages loaded", logger.String("season", season), logger.Int("fields", len(merged)))
	return merged, nil
}

// ExtractLeagueAverages zips the LEAGUE AVERAGES header row with the
// Major League Baseball row of one team statistics page.
func ExtractLeagueAverages(doc *goquery.Document) (stats.Record, error) {
	headers, err := labelledRow(doc, leagueHeaderLabel)
	if err != nil {
		return nil, err
	}
	values, err := labelledRow(doc, leagueValuesLabel)
	if err != nil {
		return nil, err
	}
	return stats.Zip(headers, values)
}

// labelledRow finds the row whose cell reads label and returns the texts of
// the cells after it.
func labelledRow(doc *goquery.Document, label string) ([]string, error) {
	cell := doc.Find("td, th").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == label
	}).First()
	if cell.Length() == 0 {
		return nil, fmt.Errorf("%w: no %q row", stats.ErrParse, label)
	}
	var out []string
	cell.NextAll().Filter("td, th").Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out, nil
}
