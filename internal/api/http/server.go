package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/farm-weather-alerts/internal/alert"
	"github.com/i474232898/farm-weather-alerts/internal/config"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

// Dashboarder builds the current weather dashboard.
type Dashboarder interface {
	Dashboard(ctx context.Context, req weather.DashboardRequest) (weather.Dashboard, error)
}

// AlertRunner runs one alert batch.
type AlertRunner interface {
	Run(ctx context.Context) (alert.Report, error)
}

// NewApp builds the Fiber app with middleware, the JSON error handler and
// all routes registered.
func NewApp(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               deps.Service,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * time.Minute, // the alert batch answers synchronously
		ErrorHandler:          errorHandler(deps.Logger),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "authorization, x-client-info, apikey, content-type",
	}))

	RegisterRoutes(app, deps)
	return app
}

// errorHandler renders every error as {"error": message}. Configuration
// errors and unexpected failures are 500s.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := err.Error()

		var fe *fiber.Error
		var mse *config.MissingSecretError
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			msg = fe.Message
		case errors.As(err, &mse):
			msg = mse.Error()
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err,
			)
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
