package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

func calm(n int) []weather.ForecastSample {
	out := make([]weather.ForecastSample, n)
	for i := range out {
		out[i] = weather.ForecastSample{Condition: "Clear", PrecipProbability: 0.1, WindSpeedMS: 3}
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		modify func(w []weather.ForecastSample)
		want   Category
	}{
		{
			name:   "all clear",
			modify: func([]weather.ForecastSample) {},
			want:   CategoryNone,
		},
		{
			name: "storm outranks wind",
			modify: func(w []weather.ForecastSample) {
				w[2].Condition = "Thunderstorm"
				w[5].WindSpeedMS = 15
			},
			want: CategoryStorm,
		},
		{
			name: "storm outranks rain",
			modify: func(w []weather.ForecastSample) {
				w[7].Condition = "Thunderstorm"
				w[0].RainMM3h = 30
			},
			want: CategoryStorm,
		},
		{
			name:   "wind exactly at threshold",
			modify: func(w []weather.ForecastSample) { w[3].WindSpeedMS = 12 },
			want:   CategoryWind,
		},
		{
			name:   "wind just below threshold",
			modify: func(w []weather.ForecastSample) { w[3].WindSpeedMS = 11.99 },
			want:   CategoryNone,
		},
		{
			name: "wind outranks rain",
			modify: func(w []weather.ForecastSample) {
				w[1].WindSpeedMS = 12.5
				w[1].PrecipProbability = 0.95
			},
			want: CategoryWind,
		},
		{
			name:   "probability above 0.8",
			modify: func(w []weather.ForecastSample) { w[4].PrecipProbability = 0.81 },
			want:   CategoryRain,
		},
		{
			name:   "probability exactly 0.8",
			modify: func(w []weather.ForecastSample) { w[4].PrecipProbability = 0.80 },
			want:   CategoryNone,
		},
		{
			name:   "heavy volume",
			modify: func(w []weather.ForecastSample) { w[6].RainMM3h = 10.1 },
			want:   CategoryRain,
		},
		{
			name:   "volume exactly 10",
			modify: func(w []weather.ForecastSample) { w[6].RainMM3h = 10 },
			want:   CategoryNone,
		},
		{
			name:   "lowercase label is not a storm",
			modify: func(w []weather.ForecastSample) { w[0].Condition = "thunderstorm" },
			want:   CategoryNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := calm(WindowSize)
			tt.modify(w)
			assert.Equal(t, tt.want, Classify(w))
		})
	}
}

func TestClassify_IgnoresSamplesBeyondWindow(t *testing.T) {
	samples := calm(16)
	samples[8].Condition = "Thunderstorm"
	samples[9].WindSpeedMS = 20
	samples[10].RainMM3h = 40

	assert.Equal(t, CategoryNone, Classify(samples))
}

func TestClassify_ShortForecastUsesAllSamples(t *testing.T) {
	samples := calm(3)
	samples[2].Condition = "Thunderstorm"
	assert.Equal(t, CategoryStorm, Classify(samples))

	assert.Equal(t, CategoryNone, Classify(nil))
}

func TestWindow(t *testing.T) {
	assert.Len(t, Window(calm(40)), WindowSize)
	assert.Len(t, Window(calm(5)), 5)
}
