// Package stats holds the loosely typed stat records scraped from
// statistics pages and the error taxonomy shared across the module.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record maps a stat column name (HR, BB, IP, ...) to its raw cell text.
// A missing key means the stat is unavailable, never zero.
type Record map[string]string

// Has reports whether the record carries a value for name.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Keys returns the field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Float parses the named field as a number. Thousands separators are ignored.
func (r Record) Float(name string) (float64, error) {
	raw, ok := r[name]
	if !ok {
		return 0, &MissingFieldError{Field: name}
	}
	v, err := parseFinite(cleanNumber(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: field %q value %q is not numeric", ErrParse, name, raw)
	}
	return v, nil
}

// Innings parses an innings-pitched field. Box-score notation records
// thirds of an inning after the dot, so 200.1 is 200 1/3 innings.
func (r Record) Innings(name string) (float64, error) {
	raw, ok := r[name]
	if !ok {
		return 0, &MissingFieldError{Field: name}
	}
	s := cleanNumber(raw)
	whole, frac, found := strings.Cut(s, ".")
	w, err := parseFinite(whole)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q value %q is not innings", ErrParse, name, raw)
	}
	if !found {
		return w, nil
	}
	switch frac {
	case "", "0":
		return w, nil
	case "1":
		return w + 1.0/3.0, nil
	case "2":
		return w + 2.0/3.0, nil
	}
	// League pages publish averages with real decimals (1443.67).
	v, err := parseFinite(s)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q value %q is not innings", ErrParse, name, raw)
	}
	return v, nil
}

// Merge unions records in order. A key present in more than one record must
// carry the same value everywhere, otherwise a *ConflictError is returned.
func Merge(records ...Record) (Record, error) {
	out := Record{}
	for _, rec := range records {
		for k, v := range rec {
			if prev, ok := out[k]; ok && prev != v {
				return nil, &ConflictError{Field: k, Existing: prev, Incoming: v}
			}
			out[k] = v
		}
	}
	return out, nil
}

// Zip pairs headers with values positionally. Count disagreement is a parse
// error rather than a silent truncation.
func Zip(headers, values []string) (Record, error) {
	if len(headers) != len(values) {
		return nil, fmt.Errorf("%w: %d headers but %d values", ErrParse, len(headers), len(values))
	}
	rec := make(Record, len(headers))
	for i, h := range headers {
		if prev, ok := rec[h]; ok && prev != values[i] {
			return nil, &ConflictError{Field: h, Existing: prev, Incoming: values[i]}
		}
		rec[h] = values[i]
	}
	return rec, nil
}

// parseFinite rejects the NaN and Inf spellings ParseFloat accepts.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func cleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
