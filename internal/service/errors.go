package service

import (
	"errors"

	"github.com/fortuna/sabermetrics/internal/stats"
)

// Classify names the error class of err for logs and metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnknownMetric):
		return "unknown_metric"
	case errors.Is(err, stats.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, stats.ErrSeasonNotFound):
		return "season_not_found"
	case errors.Is(err, stats.ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, stats.ErrTransport):
		return "transport"
	case errors.Is(err, stats.ErrMissingField):
		return "missing_field"
	case errors.Is(err, stats.ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, stats.ErrConflict):
		return "conflict"
	case errors.Is(err, stats.ErrParse):
		return "parse"
	}
	return "error"
}

// Message is the user-facing sentence for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, stats.ErrPlayerNotFound):
		return "No stats found for the given player"
	case errors.Is(err, stats.ErrSeasonNotFound):
		return "No stats found for the given year"
	}
	return err.Error()
}
