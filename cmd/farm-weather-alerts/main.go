package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/farm-weather-alerts/internal/alert"
	httpapi "github.com/i474232898/farm-weather-alerts/internal/api/http"
	"github.com/i474232898/farm-weather-alerts/internal/config"
	"github.com/i474232898/farm-weather-alerts/internal/events"
	"github.com/i474232898/farm-weather-alerts/internal/i18n"
	"github.com/i474232898/farm-weather-alerts/internal/observability"
	"github.com/i474232898/farm-weather-alerts/internal/push"
	"github.com/i474232898/farm-weather-alerts/internal/scheduler"
	"github.com/i474232898/farm-weather-alerts/internal/store"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
	"github.com/i474232898/farm-weather-alerts/internal/weather/providers"
)

const serviceName = "farm-weather-alerts"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	profiles, closeStore, err := newProfileStore(cfg, httpClient)
	if err != nil {
		logger.Error("failed to open profile store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	geocoder, source := newProviders(cfg, httpClient, metrics)
	catalog := i18n.Default()

	// Dashboard path.
	service := weather.NewService(geocoder, source, catalog, logger)

	// Alert batch.
	opts := alert.Options{
		Workers:     cfg.AlertWorkers,
		CallTimeout: cfg.HTTPTimeout,
		Clock:       clockwork.NewRealClock(),
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		defer publisher.Close()
		opts.Sink = publisher
	}
	runner := alert.NewRunner(profiles, geocoder, source, catalog,
		push.NewFCMClient(httpClient, cfg.FCMServerKey), logger, metrics, opts)

	if cfg.AlertScheduleEnabled {
		sched := scheduler.New(runner, cfg.AlertInterval, func() error {
			return cfg.Require(config.SecretWeather, config.SecretPush, config.SecretBackend)
		}, logger)
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	app := httpapi.NewApp(httpapi.Deps{
		Config:    cfg,
		Dashboard: service,
		Alerts:    runner,
		Profiles:  profiles,
		Metrics:   metrics,
		Logger:    logger,
		Service:   serviceName,
	})

	// Start server with graceful shutdown
	go func() {
		logger.Info("http server listening", "port", cfg.Port, "profile_store", cfg.ProfileStore)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}

func newProfileStore(cfg *config.AppConfig, client *http.Client) (store.Store, func(), error) {
	switch cfg.ProfileStore {
	case config.StoreMemory:
		return store.NewMemoryStore(), func() {}, nil
	case config.StoreSQL:
		s, err := store.NewSQLStore(context.Background(), cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StorePostgREST:
		return store.NewPostgRESTStore(client, cfg.SupabaseURL, cfg.SupabaseServiceRoleKey), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported profile store %q", cfg.ProfileStore)
	}
}

func newProviders(cfg *config.AppConfig, client *http.Client, metrics *observability.Metrics) (weather.Geocoder, weather.ForecastSource) {
	owm := providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey)

	var geocoder weather.Geocoder = owm
	if cfg.Geocoder == config.ProviderGoogle {
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleGeocodingAPIKey)
	}
	if cfg.GeocodeCacheTTL > 0 {
		geocoder = providers.NewCachedGeocoder(geocoder, cfg.GeocodeCacheTTL, cfg.GeocodeCacheSize, clockwork.NewRealClock(), metrics)
	}

	var source weather.ForecastSource = owm
	if cfg.ForecastSource == config.ProviderOpenMeteo {
		source = providers.NewOpenMeteoProvider(client)
	}
	return geocoder, source
}
