package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/farm-weather-alerts/internal/common"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

const (
	openMeteoTimeLayout = "2006-01-02T15:04"
	openMeteoStepHours  = 3
)

// OpenMeteoProvider implements weather.ForecastSource for Open-Meteo. It
// needs no API key. Hourly data is folded into 3-hour samples and WMO
// weather codes are mapped onto OpenWeatherMap condition labels, so the
// classifier and aggregator see the same shape from either source.
type OpenMeteoProvider struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		baseURL: "https://api.open-meteo.com/v1/forecast",
		client:  client,
		circuit: common.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Current(ctx context.Context, at weather.Coordinates) (weather.CurrentConditions, error) {
	values := p.baseValues(at)
	values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,weather_code,is_day")

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Apparent    float64 `json:"apparent_temperature"`
			Humidity    float64 `json:"relative_humidity_2m"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			WeatherCode int     `json:"weather_code"`
			IsDay       int     `json:"is_day"`
		} `json:"current"`
	}
	if err := p.getJSON(ctx, values, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}

	main, desc := mapOpenMeteoCondition(payload.Current.WeatherCode)
	return weather.CurrentConditions{
		Temp:        weather.Round(payload.Current.Temperature),
		FeelsLike:   weather.Round(payload.Current.Apparent),
		WindKmh:     weather.Round(weather.MSToKmh(payload.Current.WindSpeed)),
		Humidity:    weather.Round(payload.Current.Humidity),
		Main:        main,
		Description: desc,
		Icon:        mapOpenMeteoIcon(payload.Current.WeatherCode, payload.Current.IsDay == 1),
	}, nil
}

func (p *OpenMeteoProvider) Forecast(ctx context.Context, at weather.Coordinates) ([]weather.ForecastSample, error) {
	values := p.baseValues(at)
	values.Set("hourly", "temperature_2m,precipitation_probability,precipitation,weather_code,wind_speed_10m")
	// forecast_hours counts from the current hour; forecast_days would start
	// the series at local midnight.
	values.Set("forecast_hours", strconv.Itoa(weather.DashboardDays*24))

	var payload struct {
		Hourly struct {
			Time          []string  `json:"time"`
			Temperature   []float64 `json:"temperature_2m"`
			PrecipProb    []float64 `json:"precipitation_probability"`
			Precipitation []float64 `json:"precipitation"`
			WeatherCode   []int     `json:"weather_code"`
			WindSpeed     []float64 `json:"wind_speed_10m"`
		} `json:"hourly"`
	}
	if err := p.getJSON(ctx, values, &payload); err != nil {
		return nil, err
	}

	h := payload.Hourly
	n := len(h.Time)
	if len(h.Temperature) < n || len(h.PrecipProb) < n || len(h.Precipitation) < n ||
		len(h.WeatherCode) < n || len(h.WindSpeed) < n {
		return nil, fmt.Errorf("%w: openmeteo hourly series have mismatched lengths", common.ErrUpstreamUnavailable)
	}

	samples := make([]weather.ForecastSample, 0, n/openMeteoStepHours+1)
	for i := 0; i < n; i += openMeteoStepHours {
		ts, err := time.Parse(openMeteoTimeLayout, h.Time[i])
		if err != nil {
			return nil, fmt.Errorf("%w: openmeteo time %q: %v", common.ErrUpstreamUnavailable, h.Time[i], err)
		}

		end := min(i+openMeteoStepHours, n)
		var (
			wind, pop, rain float64
			code            int
		)
		for j := i; j < end; j++ {
			wind = math.Max(wind, h.WindSpeed[j])
			pop = math.Max(pop, h.PrecipProb[j]/100)
			rain += h.Precipitation[j]
			code = max(code, h.WeatherCode[j])
		}

		main, desc := mapOpenMeteoCondition(code)
		samples = append(samples, weather.ForecastSample{
			Time:              ts,
			TemperatureC:      h.Temperature[i],
			WindSpeedMS:       wind,
			PrecipProbability: pop,
			RainMM3h:          rain,
			Condition:         main,
			Description:       desc,
		})
	}
	return samples, nil
}

func (p *OpenMeteoProvider) baseValues(at weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "auto")
	return values
}

func (p *OpenMeteoProvider) getJSON(ctx context.Context, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := common.DoRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode openmeteo: %v", common.ErrUpstreamUnavailable, err)
	}
	return nil
}

// mapOpenMeteoCondition maps WMO weather codes onto OpenWeatherMap's
// condition groups (simplified).
func mapOpenMeteoCondition(code int) (main, description string) {
	switch {
	case code == 0:
		return "Clear", "clear sky"
	case code >= 1 && code <= 3:
		return "Clouds", "clouds"
	case code == 45 || code == 48:
		return "Fog", "fog"
	case code >= 51 && code <= 57:
		return "Drizzle", "drizzle"
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return "Rain", "rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "Snow", "snow"
	case code >= 95:
		return "Thunderstorm", "thunderstorm"
	default:
		return "", ""
	}
}

// mapOpenMeteoIcon returns the OpenWeatherMap icon id for a WMO code.
func mapOpenMeteoIcon(code int, isDay bool) string {
	var id string
	switch {
	case code == 0:
		id = "01"
	case code == 1:
		id = "02"
	case code == 2:
		id = "03"
	case code == 3:
		id = "04"
	case code == 45 || code == 48:
		id = "50"
	case (code >= 51 && code <= 57) || (code >= 80 && code <= 82):
		id = "09"
	case code >= 61 && code <= 67:
		id = "10"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		id = "13"
	case code >= 95:
		id = "11"
	default:
		return ""
	}
	if isDay {
		return id + "d"
	}
	return id + "n"
}
