package stats

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the ingest, formula and service layers.
// Callers match them with errors.Is.
var (
	ErrTransport      = errors.New("transport failure")
	ErrPlayerNotFound = errors.New("no player found")
	ErrSeasonNotFound = errors.New("no season data found")
	ErrParse          = errors.New("unexpected page structure")
	ErrMissingField   = errors.New("missing field")
	ErrDivisionByZero = errors.New("division by zero")
	ErrConflict       = errors.New("conflicting field values")
	ErrNotImplemented = errors.New("metric not implemented")
)

// MissingFieldError reports a stat a formula needed but the record lacked.
type MissingFieldError struct {
	Metric string
	Field  string
}

func (e *MissingFieldError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("%s: missing field %q", e.Metric, e.Field)
}

// Unwrap lets errors.Is(err, ErrMissingField) match.
func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// ConflictError is returned by Merge when two sources disagree on a field.
type ConflictError struct {
	Field    string
	Existing string
	Incoming string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("field %q: %q conflicts with %q", e.Field, e.Existing, e.Incoming)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
