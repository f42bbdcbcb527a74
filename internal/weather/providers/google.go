package providers

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/farm-weather-alerts/internal/common"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleGeocoder configures the geocoder package with apiKey. The key is
// package-global in the underlying library, so only one instance should exist.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{lookup: geocoder.Geocoding}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, village, state string) (weather.Coordinates, error) {
	if village == "" {
		return weather.Coordinates{}, weather.ErrLocationNotFound
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	// The library has no context support; abandon the call when ctx ends.
	done := make(chan result, 1)
	go func() {
		loc, err := g.lookup(geocoder.Address{
			City:    village,
			State:   state,
			Country: "India",
		})
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, fmt.Errorf("%w: google geocode: %v", common.ErrUpstreamUnavailable, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if common.ContainsAnyFold(r.err.Error(), "no results", "zero_results") {
				return weather.Coordinates{}, fmt.Errorf("%w: %s, %s", weather.ErrLocationNotFound, village, state)
			}
			return weather.Coordinates{}, fmt.Errorf("%w: google geocode: %v", common.ErrUpstreamUnavailable, r.err)
		}
		return weather.Coordinates{Lat: r.loc.Latitude, Lon: r.loc.Longitude}, nil
	}
}
