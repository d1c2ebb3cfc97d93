// Package service wires scraping and formulas into the metric operations
// exposed by the API and CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fortuna/sabermetrics/internal/formula"
	"github.com/fortuna/sabermetrics/internal/ingest/espn"
	"github.com/fortuna/sabermetrics/internal/stats"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/fortuna/sabermetrics/pkg/metrics"
)

// Service-level errors.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownMetric = errors.New("unknown metric")
)

// Metric keys accepted by Compute.
const (
	KeyWOBA  = "woba"
	KeyFIP   = "fip"
	KeyXFIP  = "xfip"
	KeySIERA = "siera"
)

// FIP constant sources.
const (
	FIPConstantLeague    = "league"
	FIPConstantPublished = "published"
)

// Player roles for raw stat lookups.
const (
	RoleBatting  = "batting"
	RolePitching = "pitching"
)

var seasonPattern = regexp.MustCompile(`^\d{4}$`)

// PlayerSource provides player seasons and league averages.
type PlayerSource interface {
	PlayerSeason(ctx context.Context, name, season string, layout espn.Layout) (stats.Record, error)
	LeagueAverages(ctx context.Context, season string, pages []espn.LeaguePage) (stats.Record, error)
}

// WeightingsSource provides the season's published constants.
type WeightingsSource interface {
	Weightings(ctx context.Context, season string) (stats.Record, error)
}

// Publisher receives every successful result.
type Publisher interface {
	PublishResult(ctx context.Context, result interface{}) error
}

// Result is one computed metric.
type Result struct {
	Metric     string    `json:"metric"`
	Player     string    `json:"player"`
	Season     string    `json:"season"`
	Value      float64   `json:"value"`
	Formatted  string    `json:"formatted"`
	ComputedAt time.Time `json:"computed_at"`
}

// Options tunes a MetricsService.
type Options struct {
	// FIPConstantSource is FIPConstantLeague (default) or FIPConstantPublished.
	FIPConstantSource string
	// Timeout caps a whole computation; zero means no cap.
	Timeout   time.Duration
	Publisher Publisher
	Logger    logger.Logger
	Metrics   *metrics.Manager
}

// MetricsService computes wOBA, FIP and xFIP for a player season. It holds
// no per-request state and is safe for concurrent use.
type MetricsService struct {
	players   PlayerSource
	weights   WeightingsSource
	fipSource string
	timeout   time.Duration
	publisher Publisher
	log       logger.Logger
	metrics   *metrics.Manager
	now       func() time.Time
}

// NewMetricsService creates a new metrics service
func NewMetricsService(players PlayerSource, weights WeightingsSource, opts Options) *MetricsService {
	src := opts.FIPConstantSource
	if src == "" {
		src = FIPConstantLeague
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &MetricsService{
		players:   players,
		weights:   weights,
		fipSource: src,
		timeout:   opts.Timeout,
		publisher: opts.Publisher,
		log:       log,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

// Compute dispatches on a metric key (woba, fip, xfip, siera).
func (s *MetricsService) Compute(ctx context.Context, metric, name, season string) (*Result, error) {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case KeyWOBA:
		return s.WOBA(ctx, name, season)
	case KeyFIP:
		return s.FIP(ctx, name, season)
	case KeyXFIP:
		return s.XFIP(ctx, name, season)
	case KeySIERA:
		return s.SIERA(ctx, name, season)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
}

// WOBA computes a batter's weighted on-base average.
func (s *MetricsService) WOBA(ctx context.Context, name, season string) (*Result, error) {
	return s.run(ctx, formula.MetricWOBA, name, season, func(ctx context.Context, name, season string) (float64, error) {
		line, err := s.players.PlayerSeason(ctx, name, season, espn.BattingLayout)
		if err != nil {
			return 0, err
		}
		weights, err := s.weights.Weightings(ctx, season)
		if err != nil {
			return 0, err
		}
		return formula.WOBA(line, weights)
	})
}

// FIP computes a pitcher's fielding-independent pitching.
func (s *MetricsService) FIP(ctx context.Context, name, season string) (*Result, error) {
	return s.run(ctx, formula.MetricFIP, name, season, func(ctx context.Context, name, season string) (float64, error) {
		line, err := s.players.PlayerSeason(ctx, name, season, espn.PitchingLayout)
		if err != nil {
			return 0, err
		}
		cFIP, err := s.fipConstant(ctx, season, nil)
		if err != nil {
			return 0, err
		}
		return formula.FIP(line, cFIP)
	})
}

// XFIP computes FIP with home runs normalized to the league HR/FB rate.
func (s *MetricsService) XFIP(ctx context.Context, name, season string) (*Result, error) {
	return s.run(ctx, formula.MetricXFIP, name, season, func(ctx context.Context, name, season string) (float64, error) {
		line, err := s.players.PlayerSeason(ctx, name, season, espn.PitchingLayout)
		if err != nil {
			return 0, err
		}
		league, err := s.players.LeagueAverages(ctx, season, espn.AllLeaguePages)
		if err != nil {
			return 0, err
		}
		cFIP, err := s.fipConstant(ctx, season, league)
		if err != nil {
			return 0, err
		}
		return formula.XFIP(line, league, cFIP)
	})
}

// SIERA is not implemented; it validates input and reports the gap.
func (s *MetricsService) SIERA(ctx context.Context, name, season string) (*Result, error) {
	return s.run(ctx, formula.MetricSIERA, name, season, func(context.Context, string, string) (float64, error) {
		return formula.SIERA(nil, nil)
	})
}

// PlayerStats returns the raw merged stat line for a role.
func (s *MetricsService) PlayerStats(ctx context.Context, name, season, role string) (stats.Record, error) {
	if err := validate(name, season); err != nil {
		return nil, err
	}
	var layout espn.Layout
	switch strings.ToLower(role) {
	case "", RoleBatting:
		layout = espn.BattingLayout
	case RolePitching:
		layout = espn.PitchingLayout
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.players.PlayerSeason(ctx, name, season, layout)
}

// LeagueAverages returns the merged league averages for season.
func (s *MetricsService) LeagueAverages(ctx context.Context, season string) (stats.Record, error) {
	if !seasonPattern.MatchString(season) {
		return nil, fmt.Errorf("%w: season %q", ErrInvalidInput, season)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.players.LeagueAverages(ctx, season, espn.AllLeaguePages)
}

// Weightings returns the published constants for season.
func (s *MetricsService) Weightings(ctx context.Context, season string) (stats.Record, error) {
	if !seasonPattern.MatchString(season) {
		return nil, fmt.Errorf("%w: season %q", ErrInvalidInput, season)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.weights.Weightings(ctx, season)
}

// fipConstant returns cFIP from the configured source. league may carry
// already-fetched averages.
func (s *MetricsService) fipConstant(ctx context.Context, season string, league stats.Record) (float64, error) {
	if s.fipSource == FIPConstantPublished {
		w, err := s.weights.Weightings(ctx, season)
		if err != nil {
			return 0, err
		}
		v, err := w.Float("cFIP")
		if err != nil {
			var mf *stats.MissingFieldError
			if errors.As(err, &mf) {
				return 0, &stats.MissingFieldError{Metric: formula.MetricFIP, Field: mf.Field}
			}
			return 0, err
		}
		return v, nil
	}
	if league == nil {
		var err error
		league, err = s.players.LeagueAverages(ctx, season, espn.FIPConstantPages)
		if err != nil {
			return 0, err
		}
	}
	return formula.FIPConstant(league)
}

func (s *MetricsService) run(ctx context.Context, metric, name, season string, eval func(ctx context.Context, name, season string) (float64, error)) (*Result, error) {
	start := s.now()
	name = strings.TrimSpace(name)
	season = strings.TrimSpace(season)

	value, err := func() (float64, error) {
		if err := validate(name, season); err != nil {
			return 0, err
		}
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		return eval(ctx, name, season)
	}()

	outcome := Classify(err)
	s.metrics.RecordComputation(metric, outcome, s.now().Sub(start))
	if err != nil {
		s.log.Info(ctx, "metric not computed",
			logger.String("metric", metric),
			logger.String("player", name),
			logger.String("season", season),
			logger.String("outcome", outcome),
			logger.Error(err))
		return nil, err
	}

	res := &Result{
		Metric:     metric,
		Player:     name,
		Season:     season,
		Value:      formula.Round2(value),
		Formatted:  formula.Format(value),
		ComputedAt: s.now().UTC(),
	}
	s.log.Info(ctx, "metric computed",
		logger.String("metric", metric),
		logger.String("player", name),
		logger.String("season", season),
		logger.String("value", res.Formatted))

	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, res); err != nil {
			s.log.Warn(ctx, "publishing result failed", logger.String("metric", metric), logger.Error(err))
		}
	}
	return res, nil
}

func (s *MetricsService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func validate(name, season string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}
	if !seasonPattern.MatchString(strings.TrimSpace(season)) {
		return fmt.Errorf("%w: season %q must be a four-digit year", ErrInvalidInput, season)
	}
	return nil
}
