// Package espn scrapes player and league statistics from ESPN's MLB pages.
package espn

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fortuna/sabermetrics/internal/stats"
)

// Layout lists which statistics tables to read, by position. Negative
// positions count from the end, so -1 is the last table.
type Layout []int

// Stat page layouts. Batting pages carry the standard table first and two
// misc tables last; pitching pages one misc table last.
var (
	BattingLayout  = Layout{0, -2, -1}
	PitchingLayout = Layout{0, -1}
)

const (
	tableSelector  = "table.tablehead"
	headerSelector = "tr.colhead"
	rowSelector    = "tr.evenrow, tr.oddrow"

	totalLabel = "Total"
)

var (
	// LAA159, Total162, NYY/SD48
	teamGamesPattern = regexp.MustCompile(`^([A-Za-z]+(?:/[A-Za-z]+)*)(\d+)$`)
	// 1.093.45 -> WHIP 1.09, ERA 3.45
	whipERAPattern = regexp.MustCompile(`^(\d\.\d{2})(\d+\.\d{2})$`)
)

// resolve maps layout positions onto n tables, dropping duplicates.
func (l Layout) resolve(n int) ([]int, error) {
	seen := make(map[int]bool, len(l))
	out := make([]int, 0, len(l))
	for _, p := range l {
		i := p
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: table position %d out of range (%d tables)", stats.ErrParse, p, n)
		}
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out, nil
}

// ExtractSeason reads the season's row from each table named by layout and
// merges them into one record. A season absent from every table yields
// stats.ErrSeasonNotFound.
func ExtractSeason(doc *goquery.Document, season string, layout Layout) (stats.Record, error) {
	tables := doc.Find(tableSelector)
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w: no statistics tables", stats.ErrParse)
	}
	positions, err := layout.resolve(tables.Length())
	if err != nil {
		return nil, err
	}

	parts := make([]stats.Record, 0, len(positions))
	for _, i := range positions {
		rec, err := extractTable(tables.Eq(i), season)
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		if rec != nil {
			parts = append(parts, rec)
		}
	}

	merged, err := stats.Merge(parts...)
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: season %s", stats.ErrSeasonNotFound, season)
	}
	return merged, nil
}

// extractTable returns nil, nil when the table has no row for season.
func extractTable(table *goquery.Selection, season string) (stats.Record, error) {
	headers, err := tableHeaders(table)
	if err != nil {
		return nil, err
	}

	var matches [][]string
	table.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) > 0 && cells[0] == season {
			matches = append(matches, cells)
		}
	})

	var row []string
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		row = matches[0]
	default:
		for _, m := range matches {
			if len(m) > 1 && strings.HasPrefix(m[1], totalLabel) {
				row = m
				break
			}
		}
		if row == nil {
			return nil, fmt.Errorf("%w: %d rows for season %s and no %s row", stats.ErrParse, len(matches), season, totalLabel)
		}
	}

	return stats.Zip(headers, splitTokens(headers, row))
}

// tableHeaders reads the column header row. The first two columns are
// renamed SEASON and TEAM.
func tableHeaders(table *goquery.Selection) ([]string, error) {
	header := table.Find(headerSelector).First()
	if header.Length() == 0 {
		return nil, fmt.Errorf("%w: table has no header row", stats.ErrParse)
	}
	cells := cellTexts(header)
	if len(cells) < 2 {
		return nil, fmt.Errorf("%w: header row has %d columns", stats.ErrParse, len(cells))
	}
	return append([]string{"SEASON", "TEAM"}, cells[2:]...), nil
}

// splitTokens undoes the pages' habit of gluing cells together: TEAM with
// GP, and WHIP with ERA. A pitching row may carry both. Each split runs only
// while the row is still short of the headers and the header names say
// which pair is glued.
func splitTokens(headers, values []string) []string {
	out := append([]string(nil), values...)
	n := len(headers)

	if len(out) < n && n > 2 && headers[2] == "GP" && len(out) > 1 {
		if m := teamGamesPattern.FindStringSubmatch(out[1]); m != nil {
			out = append(out[:1], append([]string{m[1], m[2]}, out[2:]...)...)
		}
	}

	if len(out) < n && n >= 2 && headers[n-2] == "WHIP" && headers[n-1] == "ERA" && len(out) > 0 {
		if m := whipERAPattern.FindStringSubmatch(out[len(out)-1]); m != nil {
			out = append(out[:len(out)-1], m[1], m[2])
		}
	}
	return out
}

func cellTexts(row *goquery.Selection) []string {
	cells := row.Children().Filter("td, th")
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
