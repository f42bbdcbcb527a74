package providers

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/farm-weather-alerts/internal/observability"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache whose entries
// expire after ttl. Errors are never cached.
type CachedGeocoder struct {
	inner   weather.Geocoder
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu         sync.Mutex
	maxEntries int
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key     string
	coords  weather.Coordinates
	expires time.Time
}

// NewCachedGeocoder creates a cache decorator around a geocoder. metrics may be nil.
func NewCachedGeocoder(inner weather.Geocoder, ttl time.Duration, maxEntries int, clock clockwork.Clock, metrics *observability.Metrics) *CachedGeocoder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &CachedGeocoder{
		inner:      inner,
		ttl:        ttl,
		clock:      clock,
		metrics:    metrics,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, village, state string) (weather.Coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(village)) + "|" + strings.ToLower(strings.TrimSpace(state))
	if coords, ok := c.get(key); ok {
		c.count("hit")
		return coords, nil
	}
	c.count("miss")

	coords, err := c.inner.Geocode(ctx, village, state)
	if err != nil {
		return coords, err
	}
	c.put(key, coords)
	return coords, nil
}

// Len reports the number of live and expired entries still held.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CachedGeocoder) get(key string) (weather.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return weather.Coordinates{}, false
	}
	e := el.Value.(*cacheEntry)
	if !c.clock.Now().Before(e.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		return weather.Coordinates{}, false
	}
	c.order.MoveToFront(el)
	return e.coords, true
}

func (c *CachedGeocoder) put(key string, coords weather.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		e.coords, e.expires = coords, expires
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, coords: coords, expires: expires})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *CachedGeocoder) count(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}
