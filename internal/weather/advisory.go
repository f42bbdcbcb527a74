package weather

import (
	"strconv"
	"strings"
)

// Advisory is a farm-work recommendation derived from the forecast.
type Advisory struct {
	Kind        string `json:"kind"` // planting, irrigation, spraying
	Title       string `json:"title"`
	Description string `json:"desc"`
}

// Texts looks up localized strings by language and key.
type Texts interface {
	Text(lang, key string) string
}

const (
	rainSoonChance   = 70 // percent, any forecast day
	highWindKmh      = 20 // any forecast day
	plantingMinTempC = 20
	plantingMaxTempC = 32
)

// Advise returns the planting, irrigation and spraying advisories for the
// given conditions. Texts may contain {crop}, {temp} and {feels} placeholders.
func Advise(texts Texts, lang string, current CurrentConditions, forecast []DailySummary, crop string) []Advisory {
	var rainSoon, highWind bool
	for _, d := range forecast {
		if d.RainChance >= rainSoonChance {
			rainSoon = true
		}
		if d.Wind >= highWindKmh {
			highWind = true
		}
	}
	goodPlanting := current.Temp >= plantingMinTempC && current.Temp <= plantingMaxTempC && !highWind

	if strings.TrimSpace(crop) == "" {
		crop = texts.Text(lang, "advisory_default_crop")
	}
	fill := strings.NewReplacer(
		"{crop}", crop,
		"{temp}", strconv.Itoa(current.Temp),
		"{feels}", strconv.Itoa(current.FeelsLike),
	)

	build := func(kind, variant string) Advisory {
		prefix := "advisory_" + kind + "_" + variant
		return Advisory{
			Kind:        kind,
			Title:       fill.Replace(texts.Text(lang, prefix+"_title")),
			Description: fill.Replace(texts.Text(lang, prefix+"_desc")),
		}
	}

	return []Advisory{
		build("planting", pick(goodPlanting, "good", "poor")),
		build("irrigation", pick(rainSoon, "skip", "needed")),
		build("spraying", pick(highWind, "avoid", "good")),
	}
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
