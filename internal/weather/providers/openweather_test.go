package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather-alerts/internal/common"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

func newTestOpenWeather(srv *httptest.Server) *OpenWeatherProvider {
	p := NewOpenWeatherProvider(srv.Client(), "test-key")
	p.baseURL = srv.URL
	return p
}

func TestOpenWeatherGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, "Namburu,Andhra Pradesh,IN", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`[{"name":"Namburu","lat":16.36,"lon":80.51,"country":"IN"}]`))
	}))
	defer srv.Close()

	coords, err := newTestOpenWeather(srv).Geocode(context.Background(), "Namburu", "Andhra Pradesh")
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinates{Lat: 16.36, Lon: 80.51}, coords)
}

func TestOpenWeatherGeocode_NoStateOmitsSegment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Namburu,IN", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[{"lat":1,"lon":2}]`))
	}))
	defer srv.Close()

	_, err := newTestOpenWeather(srv).Geocode(context.Background(), "Namburu", "")
	require.NoError(t, err)
}

func TestOpenWeatherGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestOpenWeather(srv).Geocode(context.Background(), "Atlantis", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrLocationNotFound))
}

func TestOpenWeatherGeocode_EmptyVillage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	_, err := newTestOpenWeather(srv).Geocode(context.Background(), "", "Kerala")
	assert.True(t, errors.Is(err, weather.ErrLocationNotFound))
	assert.Equal(t, int32(0), hits.Load())
}

func TestOpenWeatherGeocode_UpstreamError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestOpenWeather(srv).Geocode(context.Background(), "Namburu", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamUnavailable))
	assert.False(t, errors.Is(err, weather.ErrLocationNotFound))
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenWeather_MissingKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "")
	_, err := p.Geocode(context.Background(), "Namburu", "")
	assert.ErrorIs(t, err, errNoAPIKey)
}

func TestOpenWeatherForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/forecast", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "16.36", r.URL.Query().Get("lat"))
		_, _ = w.Write([]byte(`{"list":[
			{"dt":1717405200,"dt_txt":"2024-06-03 09:00:00","main":{"temp":31.4},"wind":{"speed":4.2},"pop":0.35,
			 "weather":[{"main":"Clouds","description":"broken clouds","icon":"04d"}]},
			{"dt":1717416000,"main":{"temp":29.0},"wind":{"speed":13.1},"pop":0.9,"rain":{"3h":12.5},
			 "weather":[{"main":"Thunderstorm","description":"thunderstorm with rain"}]},
			{"dt":1717426800,"dt_txt":"2024-06-03 15:00:00","main":{"temp":27.0},"wind":{"speed":2},"weather":[]}
		]}`))
	}))
	defer srv.Close()

	samples, err := newTestOpenWeather(srv).Forecast(context.Background(), weather.Coordinates{Lat: 16.36, Lon: 80.51})
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), samples[0].Time)
	assert.Equal(t, "Clouds", samples[0].Condition)
	assert.InDelta(t, 0.35, samples[0].PrecipProbability, 1e-9)
	assert.Zero(t, samples[0].RainMM3h)

	// dt_txt missing: fall back to dt
	assert.Equal(t, time.Unix(1717416000, 0).UTC(), samples[1].Time)
	assert.Equal(t, "Thunderstorm", samples[1].Condition)
	assert.InDelta(t, 12.5, samples[1].RainMM3h, 1e-9)
	assert.InDelta(t, 13.1, samples[1].WindSpeedMS, 1e-9)

	assert.Empty(t, samples[2].Condition)
}

func TestOpenWeatherForecast_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list":`))
	}))
	defer srv.Close()

	_, err := newTestOpenWeather(srv).Forecast(context.Background(), weather.Coordinates{})
	assert.True(t, errors.Is(err, common.ErrUpstreamUnavailable))
}

func TestOpenWeatherCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		_, _ = w.Write([]byte(`{"main":{"temp":30.5,"feels_like":34.49,"humidity":71},"wind":{"speed":5},
			"weather":[{"main":"Rain","description":"light rain","icon":"10d"}]}`))
	}))
	defer srv.Close()

	cur, err := newTestOpenWeather(srv).Current(context.Background(), weather.Coordinates{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Equal(t, weather.CurrentConditions{
		Temp:        31,
		FeelsLike:   34,
		WindKmh:     18,
		Humidity:    71,
		Main:        "Rain",
		Description: "light rain",
		Icon:        "10d",
	}, cur)
}
