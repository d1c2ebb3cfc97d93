// Package formula evaluates the sabermetric formulas against scraped
// records. Everything here is pure: no I/O, no shared state.
package formula

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fortuna/sabermetrics/internal/stats"
)

// Metric names used in errors and results.
const (
	MetricWOBA  = "wOBA"
	MetricFIP   = "FIP"
	MetricXFIP  = "xFIP"
	MetricSIERA = "SIERA"
)

// FIP coefficients.
const (
	fipHR   = 13.0
	fipBBHB = 3.0
	fipK    = 2.0
)

// reader pulls numbers out of records, remembering the first failure so the
// formulas below stay linear.
type reader struct {
	metric string
	err    error
}

func (r *reader) num(rec stats.Record, field string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := rec.Float(field)
	if err != nil {
		r.err = r.wrap(err)
	}
	return v
}

func (r *reader) innings(rec stats.Record, field string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := rec.Innings(field)
	if err != nil {
		r.err = r.wrap(err)
	}
	return v
}

func (r *reader) wrap(err error) error {
	var mf *stats.MissingFieldError
	if errors.As(err, &mf) {
		return &stats.MissingFieldError{Metric: r.metric, Field: mf.Field}
	}
	return fmt.Errorf("%s: %w", r.metric, err)
}

func divide(metric string, num, den float64) (float64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%s: %w", metric, stats.ErrDivisionByZero)
	}
	return num / den, nil
}

// WOBA computes weighted on-base average from a batting line and the
// season's linear weights.
func WOBA(line, weights stats.Record) (float64, error) {
	r := &reader{metric: MetricWOBA}

	bb := r.num(line, "BB")
	ibb := r.num(line, "IBB")
	hbp := r.num(line, "HBP")
	h := r.num(line, "H")
	doubles := r.num(line, "2B")
	triples := r.num(line, "3B")
	hr := r.num(line, "HR")
	ab := r.num(line, "AB")
	sf := r.num(line, "SF")

	wBB := r.num(weights, "wBB")
	wHBP := r.num(weights, "wHBP")
	w1B := r.num(weights, "w1B")
	w2B := r.num(weights, "w2B")
	w3B := r.num(weights, "w3B")
	wHR := r.num(weights, "wHR")
	if r.err != nil {
		return 0, r.err
	}

	ubb := bb - ibb
	singles := h - doubles - triples - hr

	num := wBB*ubb + wHBP*hbp + w1B*singles + w2B*doubles + w3B*triples + wHR*hr
	return divide(MetricWOBA, num, ab+ubb+sf+hbp)
}

// PureFIP is FIP before the league constant is added.
func PureFIP(line stats.Record) (float64, error) {
	return pureFIP(MetricFIP, line)
}

func pureFIP(metric string, line stats.Record) (float64, error) {
	r := &reader{metric: metric}
	hr := r.num(line, "HR")
	bb := r.num(line, "BB")
	hbp := r.num(line, "HBP")
	so := r.num(line, "SO")
	ip := r.innings(line, "IP")
	if r.err != nil {
		return 0, r.err
	}
	return divide(metric, fipHR*hr+fipBBHB*(bb+hbp)-fipK*so, ip)
}

// FIPConstant derives cFIP from league averages: lgERA minus the pure FIP of
// the league as a whole. The published constant differs slightly because it
// is fitted to the season's run environment.
func FIPConstant(league stats.Record) (float64, error) {
	r := &reader{metric: MetricFIP}
	era := r.num(league, "ERA")
	if r.err != nil {
		return 0, r.err
	}
	lg, err := pureFIP(MetricFIP, league)
	if err != nil {
		return 0, err
	}
	return era - lg, nil
}

// FIP is PureFIP shifted onto the ERA scale by cFIP.
func FIP(line stats.Record, cFIP float64) (float64, error) {
	p, err := PureFIP(line)
	if err != nil {
		return 0, err
	}
	return p + cFIP, nil
}

// PureXFIP replaces the pitcher's home runs with the home runs expected from
// the pitcher's fly balls at the league HR/FB rate.
func PureXFIP(line, league stats.Record) (float64, error) {
	r := &reader{metric: MetricXFIP}
	lgHR := r.num(league, "HR")
	lgFB := r.num(league, "FB")
	fb := r.num(line, "FB")
	bb := r.num(line, "BB")
	hbp := r.num(line, "HBP")
	so := r.num(line, "SO")
	ip := r.innings(line, "IP")
	if r.err != nil {
		return 0, r.err
	}
	hrfb, err := divide(MetricXFIP, lgHR, lgFB)
	if err != nil {
		return 0, err
	}
	return divide(MetricXFIP, fipHR*(fb*hrfb)+fipBBHB*(bb+hbp)-fipK*so, ip)
}

// XFIP is PureXFIP shifted by cFIP.
func XFIP(line, league stats.Record, cFIP float64) (float64, error) {
	p, err := PureXFIP(line, league)
	if err != nil {
		return 0, err
	}
	return p + cFIP, nil
}

// SIERA is not implemented.
func SIERA(stats.Record, stats.Record) (float64, error) {
	return 0, fmt.Errorf("%s: %w", MetricSIERA, stats.ErrNotImplemented)
}

// Round2 rounds half away from zero at the second decimal of v's shortest
// decimal form, so 2.775 and 1.005 round up even though neither is exact
// in binary.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e15 {
		return dropNegZero(math.Round(v*100) / 100)
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) <= 2 {
		return dropNegZero(v)
	}
	cents, err := strconv.ParseInt(whole+frac[:2], 10, 64)
	if err != nil {
		return dropNegZero(math.Round(v*100) / 100)
	}
	if frac[2] >= '5' {
		cents++
	}
	r := float64(cents) / 100
	if v < 0 {
		r = -r
	}
	return dropNegZero(r)
}

func dropNegZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}

// Format renders v with two decimals.
func Format(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}
