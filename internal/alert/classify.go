package alert

import (
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

// Category is the alert severity assigned to a forecast window.
type Category string

const (
	CategoryStorm Category = "storm"
	CategoryWind  Category = "wind"
	CategoryRain  Category = "rain"
	CategoryNone  Category = "none"
)

const (
	// WindowSize is the number of 3-hour samples covering the next 24 hours.
	WindowSize = 8

	stormCondition     = "Thunderstorm"
	highWindMS         = 12.0 // inclusive
	heavyRainMM3h      = 10.0 // exclusive
	rainProbabilityMin = 0.8  // exclusive
)

type rule struct {
	category Category
	match    func(window []weather.ForecastSample) bool
}

// rules are evaluated top-down; the first match wins. Storm outranks wind
// because its message carries the more urgent advice.
var rules = []rule{
	{category: CategoryStorm, match: anyStorm},
	{category: CategoryWind, match: highWind},
	{category: CategoryRain, match: heavyRain},
}

// Classify returns the alert category for the next 24 hours of samples.
func Classify(samples []weather.ForecastSample) Category {
	window := Window(samples)
	for _, r := range rules {
		if r.match(window) {
			return r.category
		}
	}
	return CategoryNone
}

// Window returns the leading samples used for classification.
func Window(samples []weather.ForecastSample) []weather.ForecastSample {
	if len(samples) > WindowSize {
		return samples[:WindowSize]
	}
	return samples
}

func anyStorm(window []weather.ForecastSample) bool {
	for _, s := range window {
		if s.Condition == stormCondition {
			return true
		}
	}
	return false
}

func highWind(window []weather.ForecastSample) bool {
	var peak float64
	for _, s := range window {
		peak = max(peak, s.WindSpeedMS)
	}
	return peak >= highWindMS
}

func heavyRain(window []weather.ForecastSample) bool {
	for _, s := range window {
		if s.RainMM3h > heavyRainMM3h || s.PrecipProbability > rainProbabilityMin {
			return true
		}
	}
	return false
}
