package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/farm-weather-alerts/internal/common"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

// CountryCode scopes every geocoding query.
const CountryCode = "IN"

const forecastTimeLayout = "2006-01-02 15:04:05"

var errNoAPIKey = errors.New("openweather api key is not configured")

// OpenWeatherProvider implements weather.Geocoder and weather.ForecastSource
// against the OpenWeatherMap geocoding and 2.5 weather APIs.
type OpenWeatherProvider struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	geoCircuit *gobreaker.CircuitBreaker
	wxCircuit  *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		apiKey:     apiKey,
		baseURL:    "https://api.openweathermap.org",
		client:     client,
		geoCircuit: common.NewBreaker("openweather-geocode"),
		wxCircuit:  common.NewBreaker("openweather-forecast"),
	}
}

// Geocode asks for the single best match of "village,state,IN".
func (p *OpenWeatherProvider) Geocode(ctx context.Context, village, state string) (weather.Coordinates, error) {
	if village == "" {
		return weather.Coordinates{}, weather.ErrLocationNotFound
	}

	q := village + "," + CountryCode
	if state != "" {
		q = fmt.Sprintf("%s,%s,%s", village, state, CountryCode)
	}
	values := url.Values{}
	values.Set("q", q)
	values.Set("limit", "1")

	var payload []struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}
	if err := p.getJSON(ctx, p.geoCircuit, "/geo/1.0/direct", values, &payload); err != nil {
		return weather.Coordinates{}, err
	}
	if len(payload) == 0 {
		return weather.Coordinates{}, fmt.Errorf("%w: %q", weather.ErrLocationNotFound, q)
	}

	return weather.Coordinates{Lat: payload[0].Lat, Lon: payload[0].Lon}, nil
}

// Current fetches the current conditions snapshot.
func (p *OpenWeatherProvider) Current(ctx context.Context, at weather.Coordinates) (weather.CurrentConditions, error) {
	var payload struct {
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []conditionPayload `json:"weather"`
	}
	if err := p.getJSON(ctx, p.wxCircuit, "/data/2.5/weather", coordValues(at), &payload); err != nil {
		return weather.CurrentConditions{}, err
	}

	cond := firstCondition(payload.Weather)
	return weather.CurrentConditions{
		Temp:        weather.Round(payload.Main.Temp),
		FeelsLike:   weather.Round(payload.Main.FeelsLike),
		WindKmh:     weather.Round(weather.MSToKmh(payload.Wind.Speed)),
		Humidity:    weather.Round(payload.Main.Humidity),
		Main:        cond.Main,
		Description: cond.Description,
		Icon:        cond.Icon,
	}, nil
}

// Forecast fetches the 5-day / 3-hour forecast.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, at weather.Coordinates) ([]weather.ForecastSample, error) {
	var payload struct {
		List []struct {
			Dt    int64  `json:"dt"`
			DtTxt string `json:"dt_txt"`
			Main  struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Pop  float64 `json:"pop"`
			Rain struct {
				ThreeH float64 `json:"3h"`
			} `json:"rain"`
			Weather []conditionPayload `json:"weather"`
		} `json:"list"`
	}
	if err := p.getJSON(ctx, p.wxCircuit, "/data/2.5/forecast", coordValues(at), &payload); err != nil {
		return nil, err
	}

	samples := make([]weather.ForecastSample, 0, len(payload.List))
	for _, item := range payload.List {
		ts, err := time.Parse(forecastTimeLayout, item.DtTxt)
		if err != nil {
			ts = time.Unix(item.Dt, 0).UTC()
		}
		cond := firstCondition(item.Weather)
		samples = append(samples, weather.ForecastSample{
			Time:              ts,
			TemperatureC:      item.Main.Temp,
			WindSpeedMS:       item.Wind.Speed,
			PrecipProbability: item.Pop,
			RainMM3h:          item.Rain.ThreeH,
			Condition:         cond.Main,
			Description:       cond.Description,
		})
	}
	return samples, nil
}

func (p *OpenWeatherProvider) getJSON(ctx context.Context, cb *gobreaker.CircuitBreaker, path string, values url.Values, out any) error {
	if p.apiKey == "" {
		return errNoAPIKey
	}
	values.Set("appid", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := common.DoRequest(ctx, p.client, cb, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", common.ErrUpstreamUnavailable, path, err)
	}
	return nil
}

type conditionPayload struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func firstCondition(items []conditionPayload) conditionPayload {
	if len(items) == 0 {
		return conditionPayload{}
	}
	return items[0]
}

func coordValues(at weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	values.Set("units", "metric")
	return values
}
