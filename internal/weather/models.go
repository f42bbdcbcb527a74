package weather

import (
	"errors"
	"math"
	"time"
)

// ErrLocationNotFound is returned when the geocoding provider has no match
// for the requested village.
var ErrLocationNotFound = errors.New("location not found")

// Coordinates is a resolved geographic point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a user-supplied place together with its resolved coordinates.
type Location struct {
	Village string  `json:"village"`
	State   *string `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// ForecastSample is one 3-hour step of the short-range forecast.
type ForecastSample struct {
	Time              time.Time // as reported upstream, no local conversion
	TemperatureC      float64
	WindSpeedMS       float64
	PrecipProbability float64 // 0..1
	RainMM3h          float64 // precipitation volume over the 3h step
	Condition         string  // e.g. "Rain", "Thunderstorm", "Clear"
	Description       string
}

// DateKey returns the calendar date portion of the sample timestamp.
func (s ForecastSample) DateKey() string {
	return s.Time.Format("2006-01-02")
}

// CurrentConditions is the user-facing snapshot shown on the dashboard.
type CurrentConditions struct {
	Temp        int    `json:"temp"`
	FeelsLike   int    `json:"feelsLike"`
	WindKmh     int    `json:"wind_kmh"`
	Humidity    int    `json:"humidity"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// DailySummary folds one calendar date of forecast samples.
type DailySummary struct {
	Date       string `json:"date"`
	Day        string `json:"day"` // Mon, Tue, ...
	High       int    `json:"high"`
	Low        int    `json:"low"`
	RainChance int    `json:"rainChance"` // 0-100
	Wind       int    `json:"wind"`       // km/h
	Main       string `json:"main"`
}

// Dashboard is the response of the on-demand current weather path.
type Dashboard struct {
	Location   Location          `json:"location"`
	Current    CurrentConditions `json:"current"`
	Forecast   []DailySummary    `json:"forecast"`
	Advisories []Advisory        `json:"advisories"`
}

// MSToKmh converts a wind speed from metres per second to kilometres per hour.
func MSToKmh(v float64) float64 {
	return v * 3.6
}

// Round rounds half up, matching how the mobile client rounds display values
// (-2.5 becomes -2, not -3).
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}
