package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Profile store backends.
const (
	StorePostgREST = "postgrest"
	StoreSQL       = "sql"
	StoreMemory    = "memory"
)

// Geocoding and forecast providers.
const (
	ProviderOpenWeather = "openweather"
	ProviderGoogle      = "google"
	ProviderOpenMeteo   = "openmeteo"
)

type AppConfig struct {
	OpenWeatherAPIKey      string
	FCMServerKey           string
	SupabaseURL            string
	SupabaseServiceRoleKey string

	// Profile store.
	ProfileStore   string // postgrest, sql or memory
	DatabaseDriver string // pgx or sqlite
	DatabaseURL    string

	// Location and forecast providers.
	Geocoder              string // openweather or google
	GoogleGeocodingAPIKey string
	ForecastSource        string // openweather or openmeteo
	GeocodeCacheTTL       time.Duration
	GeocodeCacheSize      int

	// HTTPTimeout bounds every single external call.
	HTTPTimeout time.Duration

	// Alert batch.
	AlertWorkers         int
	AlertScheduleEnabled bool
	AlertInterval        time.Duration

	KafkaBrokers    []string
	KafkaAlertTopic string

	Port            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults. Missing secrets are not an error here; endpoints
// check what they need with Require.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.FCMServerKey = os.Getenv("FCM_SERVER_KEY")
	cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	cfg.SupabaseServiceRoleKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")

	cfg.ProfileStore = strings.ToLower(getenvDefault("PROFILE_STORE", StorePostgREST))
	switch cfg.ProfileStore {
	case StorePostgREST, StoreSQL, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid PROFILE_STORE: %q", cfg.ProfileStore)
	}
	cfg.DatabaseDriver = strings.ToLower(getenvDefault("DATABASE_DRIVER", "pgx"))
	if cfg.DatabaseDriver != "pgx" && cfg.DatabaseDriver != "sqlite" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER: %q", cfg.DatabaseDriver)
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", ProviderOpenWeather))
	if cfg.Geocoder != ProviderOpenWeather && cfg.Geocoder != ProviderGoogle {
		return nil, fmt.Errorf("invalid GEOCODER: %q", cfg.Geocoder)
	}
	cfg.GoogleGeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")
	cfg.ForecastSource = strings.ToLower(getenvDefault("FORECAST_SOURCE", ProviderOpenWeather))
	if cfg.ForecastSource != ProviderOpenWeather && cfg.ForecastSource != ProviderOpenMeteo {
		return nil, fmt.Errorf("invalid FORECAST_SOURCE: %q", cfg.ForecastSource)
	}

	var err error
	if cfg.GeocodeCacheTTL, err = getenvDuration("GEOCODE_CACHE_TTL", "0"); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheSize, err = getenvPositiveInt("GEOCODE_CACHE_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.AlertWorkers, err = getenvPositiveInt("ALERT_WORKERS", 1); err != nil {
		return nil, err
	}
	if cfg.AlertScheduleEnabled, err = getenvBool("ALERT_SCHEDULE_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.AlertInterval, err = getenvDuration("ALERT_INTERVAL", "3h"); err != nil {
		return nil, err
	}
	if cfg.AlertInterval <= 0 {
		return nil, errors.New("invalid ALERT_INTERVAL: must be positive")
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.KafkaBrokers = parseList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaAlertTopic = getenvDefault("KAFKA_ALERT_TOPIC", "weather-alert-outcomes")

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func getenvPositiveInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
