// Package fangraphs reads the season linear weights and FIP constant from
// the FanGraphs "guts" page.
package fangraphs

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fortuna/sabermetrics/internal/fetch"
	"github.com/fortuna/sabermetrics/internal/stats"
	"github.com/fortuna/sabermetrics/pkg/logger"
)

// GutsURL lists wOBA weights and cFIP for every season.
const GutsURL = "http://www.fangraphs.com/guts.aspx?type=cn"

const seasonLabel = "Season"

// Client fetches the guts constants.
type Client struct {
	fetcher fetch.Fetcher
	url     string
	log     logger.Logger
}

// New creates a client. An empty gutsURL means GutsURL.
func New(fetcher fetch.Fetcher, gutsURL string, log logger.Logger) *Client {
	if gutsURL == "" {
		gutsURL = GutsURL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{fetcher: fetcher, url: gutsURL, log: log}
}

// Weightings returns the guts row for season: wOBA, wOBAScale, wBB, wHBP,
// w1B, w2B, w3B, wHR, runSB, runCS, R/PA, R/W and cFIP.
func (c *Client) Weightings(ctx context.Context, season string) (stats.Record, error) {
	doc, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("fetching guts constants: %w", err)
	}
	rec, err := ExtractWeightings(doc, season)
	if err != nil {
		return nil, err
	}
	c.log.Debug(ctx, "weightings loaded", logger.String("season", season), logger.Int("fields", len(rec)))
	return rec, nil
}

// FIPConstant returns the published cFIP for season.
func (c *Client) FIPConstant(ctx context.Context, season string) (float64, error) {
	rec, err := c.Weightings(ctx, season)
	if err != nil {
		return 0, err
	}
	return rec.Float("cFIP")
}

// ExtractWeightings reads the season's constants out of a guts document.
func ExtractWeightings(doc *goquery.Document, season string) (stats.Record, error) {
	anchor := doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == seasonLabel
	}).First()
	if anchor.Length() == 0 {
		return nil, fmt.Errorf("%w: guts table has no %s header", stats.ErrParse, seasonLabel)
	}
	headerRow := anchor.Closest("tr")
	table := headerRow.Closest("table")

	var dataRow *goquery.Selection
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		first := row.Children().Filter("td").First()
		if first.Length() > 0 && strings.TrimSpace(first.Text()) == season {
			dataRow = row
			return false
		}
		return true
	})
	if dataRow == nil {
		return nil, fmt.Errorf("%w: no guts constants for season %s", stats.ErrSeasonNotFound, season)
	}

	headers := rowTexts(headerRow)
	values := rowTexts(dataRow)
	if len(headers) == 0 || len(values) == 0 {
		return nil, fmt.Errorf("%w: empty guts row", stats.ErrParse)
	}
	// the Season column itself
	headers, values = headers[1:], values[1:]

	// trailing blank header cells are decoration
	trim := 0
	for i := len(headers) - 1; i >= 0 && headers[i] == ""; i-- {
		trim++
	}
	headers = headers[:len(headers)-trim]
	if len(values) == len(headers)+trim {
		values = values[:len(headers)]
	}

	return stats.Zip(headers, values)
}

func rowTexts(row *goquery.Selection) []string {
	cells := row.Children().Filter("td, th")
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
