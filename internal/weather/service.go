package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DashboardRequest identifies the place and presentation of a dashboard.
type DashboardRequest struct {
	Village string
	State   string
	Lang    string
	Crop    string
}

// Service builds the on-demand dashboard: coordinates, current conditions,
// a 5-day summary and farm advisories.
type Service struct {
	geocoder Geocoder
	source   ForecastSource
	texts    Texts
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, source ForecastSource, texts Texts, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		geocoder: geocoder,
		source:   source,
		texts:    texts,
		logger:   logger,
	}
}

// Dashboard resolves the village and fetches current conditions and the
// short-range forecast concurrently. Both fetches must succeed.
func (s *Service) Dashboard(ctx context.Context, req DashboardRequest) (Dashboard, error) {
	village := strings.TrimSpace(req.Village)
	state := strings.TrimSpace(req.State)

	coords, err := s.geocoder.Geocode(ctx, village, state)
	if err != nil {
		return Dashboard{}, fmt.Errorf("geocode %q: %w", village, err)
	}

	var (
		current CurrentConditions
		samples []ForecastSample
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.source.Current(gctx, coords)
		if err != nil {
			return fmt.Errorf("current conditions: %w", err)
		}
		current = c
		return nil
	})
	g.Go(func() error {
		f, err := s.source.Forecast(gctx, coords)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		samples = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	days := AggregateDaily(samples, DashboardDays)
	s.logger.Debug("dashboard built",
		"village", village,
		"samples", len(samples),
		"days", len(days),
	)

	loc := Location{Village: village, Lat: coords.Lat, Lon: coords.Lon}
	if state != "" {
		loc.State = &state
	}
	return Dashboard{
		Location:   loc,
		Current:    current,
		Forecast:   days,
		Advisories: Advise(s.texts, req.Lang, current, days, req.Crop),
	}, nil
}
