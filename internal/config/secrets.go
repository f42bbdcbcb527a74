package config

import (
	"fmt"
	"strings"
)

// Secret groups the credentials one capability needs.
type Secret int

const (
	// SecretWeather covers the geocoding and forecast providers.
	SecretWeather Secret = iota
	// SecretPush covers the push provider.
	SecretPush
	// SecretBackend covers the profile store.
	SecretBackend
)

// MissingSecretError lists the environment variables that must be set
// before a request can be served.
type MissingSecretError struct {
	Vars []string
}

func (e *MissingSecretError) Error() string {
	if len(e.Vars) == 1 {
		return e.Vars[0] + " not set"
	}
	return strings.Join(e.Vars, ", ") + " not set"
}

// Require checks the credentials behind each secret group against the
// configured providers and store.
func (c *AppConfig) Require(secrets ...Secret) error {
	var missing []string
	need := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	for _, s := range secrets {
		switch s {
		case SecretWeather:
			if c.Geocoder == ProviderOpenWeather || c.ForecastSource == ProviderOpenWeather {
				need("OPENWEATHER_API_KEY", c.OpenWeatherAPIKey)
			}
			if c.Geocoder == ProviderGoogle {
				need("GOOGLE_GEOCODING_API_KEY", c.GoogleGeocodingAPIKey)
			}
		case SecretPush:
			need("FCM_SERVER_KEY", c.FCMServerKey)
		case SecretBackend:
			switch c.ProfileStore {
			case StorePostgREST:
				need("SUPABASE_URL", c.SupabaseURL)
				need("SUPABASE_SERVICE_ROLE_KEY", c.SupabaseServiceRoleKey)
			case StoreSQL:
				need("DATABASE_URL", c.DatabaseURL)
			}
		default:
			return fmt.Errorf("unknown secret group %d", s)
		}
	}

	if len(missing) > 0 {
		return &MissingSecretError{Vars: missing}
	}
	return nil
}
