package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var advisoryTexts = mapTexts{
	"advisory_default_crop":            "your crop",
	"advisory_planting_good_title":     "Ideal for planting {crop}",
	"advisory_planting_good_desc":      "Temperature {temp}–{feels}°C.",
	"advisory_planting_poor_title":     "Planting not ideal today",
	"advisory_irrigation_skip_title":   "No irrigation needed for {crop}",
	"advisory_irrigation_needed_title": "Irrigate {crop} today",
	"advisory_spraying_avoid_title":    "Avoid spraying",
	"advisory_spraying_good_title":     "Good conditions for spraying",
}

func TestAdvise_CalmDryDay(t *testing.T) {
	current := CurrentConditions{Temp: 28, FeelsLike: 31}
	days := []DailySummary{{RainChance: 20, Wind: 10}, {RainChance: 69, Wind: 19}}

	got := Advise(advisoryTexts, "en", current, days, "cotton")
	require.Len(t, got, 3)

	assert.Equal(t, "planting", got[0].Kind)
	assert.Equal(t, "Ideal for planting cotton", got[0].Title)
	assert.Equal(t, "Temperature 28–31°C.", got[0].Description)
	assert.Equal(t, "irrigation", got[1].Kind)
	assert.Equal(t, "Irrigate cotton today", got[1].Title)
	assert.Equal(t, "spraying", got[2].Kind)
	assert.Equal(t, "Good conditions for spraying", got[2].Title)
}

func TestAdvise_WindyWetDay(t *testing.T) {
	current := CurrentConditions{Temp: 28}
	days := []DailySummary{{RainChance: 70, Wind: 20}}

	got := Advise(advisoryTexts, "en", current, days, "")
	assert.Equal(t, "Planting not ideal today", got[0].Title)
	assert.Equal(t, "No irrigation needed for your crop", got[1].Title)
	assert.Equal(t, "Avoid spraying", got[2].Title)
}

func TestAdvise_PlantingTemperatureBounds(t *testing.T) {
	tests := []struct {
		temp int
		good bool
	}{
		{19, false},
		{20, true},
		{32, true},
		{33, false},
	}
	for _, tt := range tests {
		got := Advise(advisoryTexts, "en", CurrentConditions{Temp: tt.temp}, nil, "rice")
		if tt.good {
			assert.Equal(t, "Ideal for planting rice", got[0].Title, "temp %d", tt.temp)
		} else {
			assert.Equal(t, "Planting not ideal today", got[0].Title, "temp %d", tt.temp)
		}
	}
}

func TestAdvise_MissingTextFallsBackToKey(t *testing.T) {
	got := Advise(mapTexts{}, "en", CurrentConditions{Temp: 25}, nil, "rice")
	assert.Equal(t, "advisory_spraying_good_desc", got[2].Description)
}
