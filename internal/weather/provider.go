package weather

import (
	"context"
)

// Geocoder resolves a village (optionally scoped by state) to coordinates.
// Implementations return ErrLocationNotFound when there is no match.
type Geocoder interface {
	Geocode(ctx context.Context, village, state string) (Coordinates, error)
}

// ForecastSource abstracts a weather data source (e.g. OpenWeatherMap).
type ForecastSource interface {
	Current(ctx context.Context, at Coordinates) (CurrentConditions, error)
	// Forecast returns 3-hour samples covering up to five days, oldest first.
	Forecast(ctx context.Context, at Coordinates) ([]ForecastSample, error)
}
