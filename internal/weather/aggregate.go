package weather

import "math"

// DashboardDays is the number of daily summaries shown on the dashboard.
const DashboardDays = 5

// AggregateDaily folds time-stepped samples into per-day summaries.
// Dates are taken in the order they first appear and at most maxDays are
// returned; no padding is added when fewer dates exist. The representative
// condition is the first sample of the day, not a majority vote.
func AggregateDaily(samples []ForecastSample, maxDays int) []DailySummary {
	var (
		order  []string
		byDate = make(map[string][]ForecastSample)
	)

	for _, s := range samples {
		k := s.DateKey()
		if _, ok := byDate[k]; !ok {
			order = append(order, k)
		}
		byDate[k] = append(byDate[k], s)
	}

	if maxDays > 0 && len(order) > maxDays {
		order = order[:maxDays]
	}

	days := make([]DailySummary, 0, len(order))
	for _, k := range order {
		days = append(days, summarize(k, byDate[k]))
	}
	return days
}

func summarize(date string, items []ForecastSample) DailySummary {
	var (
		high    = math.Inf(-1)
		low     = math.Inf(1)
		maxWind float64
		maxPop  float64
	)

	for _, s := range items {
		high = math.Max(high, s.TemperatureC)
		low = math.Min(low, s.TemperatureC)
		maxWind = math.Max(maxWind, MSToKmh(s.WindSpeedMS))
		maxPop = math.Max(maxPop, s.PrecipProbability)
	}

	first := items[0]
	return DailySummary{
		Date:       date,
		Day:        first.Time.Weekday().String()[:3],
		High:       Round(high),
		Low:        Round(low),
		RainChance: Round(100 * maxPop),
		Wind:       Round(maxWind),
		Main:       first.Condition,
	}
}
