package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather-alerts/internal/observability"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	coords weather.Coordinates
	err    error
}

func (m *countingGeocoder) Geocode(_ context.Context, _, _ string) (weather.Coordinates, error) {
	m.calls++
	return m.coords, m.err
}

func TestCachedGeocoder_HitIgnoresCase(t *testing.T) {
	inner := &countingGeocoder{coords: weather.Coordinates{Lat: 16.24, Lon: 80.65}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, time.Hour, 10, clockwork.NewFakeClock(), metrics)

	c1, err := cached.Geocode(context.Background(), "Namburu", "Andhra Pradesh")
	require.NoError(t, err)
	c2, err := cached.Geocode(context.Background(), "NAMBURU", "andhra pradesh")
	require.NoError(t, err)

	assert.Equal(t, c1, c2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedGeocoder_StateIsPartOfKey(t *testing.T) {
	inner := &countingGeocoder{coords: weather.Coordinates{Lat: 1, Lon: 2}}
	cached := NewCachedGeocoder(inner, time.Hour, 10, clockwork.NewFakeClock(), nil)

	_, _ = cached.Geocode(context.Background(), "Rampur", "Uttar Pradesh")
	_, _ = cached.Geocode(context.Background(), "Rampur", "Himachal Pradesh")
	_, _ = cached.Geocode(context.Background(), "Rampur", "")

	assert.Equal(t, 3, inner.calls)
}

func TestCachedGeocoder_EntriesExpire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingGeocoder{coords: weather.Coordinates{Lat: 1, Lon: 2}}
	cached := NewCachedGeocoder(inner, 10*time.Minute, 10, clock, nil)

	_, _ = cached.Geocode(context.Background(), "Namburu", "")
	clock.Advance(9 * time.Minute)
	_, _ = cached.Geocode(context.Background(), "Namburu", "")
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Minute)
	_, _ = cached.Geocode(context.Background(), "Namburu", "")
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorsAreNotCached(t *testing.T) {
	inner := &countingGeocoder{err: weather.ErrLocationNotFound}
	cached := NewCachedGeocoder(inner, time.Hour, 10, clockwork.NewFakeClock(), nil)

	_, err := cached.Geocode(context.Background(), "Nowhere", "")
	require.True(t, errors.Is(err, weather.ErrLocationNotFound))
	_, err = cached.Geocode(context.Background(), "Nowhere", "")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.Len())
}

func TestCachedGeocoder_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingGeocoder{coords: weather.Coordinates{Lat: 1, Lon: 2}}
	cached := NewCachedGeocoder(inner, time.Hour, 2, clockwork.NewFakeClock(), nil)
	ctx := context.Background()

	_, _ = cached.Geocode(ctx, "a", "")
	_, _ = cached.Geocode(ctx, "b", "")
	_, _ = cached.Geocode(ctx, "a", "") // a is now most recent
	_, _ = cached.Geocode(ctx, "c", "") // evicts b
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 2, cached.Len())

	_, _ = cached.Geocode(ctx, "a", "")
	assert.Equal(t, 3, inner.calls)
	_, _ = cached.Geocode(ctx, "b", "")
	assert.Equal(t, 4, inner.calls)
}
