package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/farm-weather-alerts/internal/config"
	"github.com/i474232898/farm-weather-alerts/internal/i18n"
	"github.com/i474232898/farm-weather-alerts/internal/observability"
	"github.com/i474232898/farm-weather-alerts/internal/store"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

const (
	msgInvalidJSON      = "Invalid JSON body"
	msgMissingID        = "Missing id"
	msgInvalidUUID      = "id must be a UUID v4"
	msgMethodNotAllowed = "Method not allowed"
	msgNoSavedVillage   = "No village saved for this user"
	msgVillageRequired  = "village is required (or provide id)"
)

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Config    *config.AppConfig
	Dashboard Dashboarder
	Alerts    AlertRunner
	Profiles  store.Store
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	Service   string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	h := &handlers{deps: deps}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": deps.Service,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/weather", h.weather)

	app.Post("/weather-alerts", h.weatherAlerts)
	app.Get("/weather-alerts", h.weatherAlerts)

	app.Post("/guest-profile", h.guestProfile)
	app.All("/guest-profile", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusMethodNotAllowed, msgMethodNotAllowed)
	})
}

type handlers struct {
	deps Deps
}

// weatherRequest is lenient: an unreadable body counts as empty, which then
// fails the village check.
type weatherRequest struct {
	ID      string `json:"id" validate:"omitempty,max=64"`
	Village string `json:"village" validate:"omitempty,max=120"`
	State   string `json:"state" validate:"omitempty,max=120"`
	Lang    string `json:"lang" validate:"omitempty,max=16"`
	Crop    string `json:"crop" validate:"omitempty,max=120"`
}

func (h *handlers) weather(c *fiber.Ctx) error {
	if err := h.deps.Config.Require(config.SecretWeather, config.SecretBackend); err != nil {
		return err
	}

	var req weatherRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		req = weatherRequest{}
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	dreq := weather.DashboardRequest{
		Village: strings.TrimSpace(req.Village),
		State:   strings.TrimSpace(req.State),
		Lang:    strings.TrimSpace(req.Lang),
		Crop:    strings.TrimSpace(req.Crop),
	}

	if dreq.Village == "" && strings.TrimSpace(req.ID) != "" {
		p, err := h.deps.Profiles.Get(c.UserContext(), strings.TrimSpace(req.ID))
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fiber.NewError(fiber.StatusBadRequest, msgNoSavedVillage)
		case err != nil:
			return err
		case !p.HasVillage():
			return fiber.NewError(fiber.StatusBadRequest, msgNoSavedVillage)
		}
		dreq.Village = strings.TrimSpace(store.Value(p.Village))
		dreq.State = strings.TrimSpace(store.Value(p.State))
		if dreq.Lang == "" {
			dreq.Lang = store.Value(p.SelectedLanguage)
		}
		if dreq.Crop == "" {
			dreq.Crop = store.Value(p.PreferredCrop)
		}
	}

	if dreq.Village == "" {
		return fiber.NewError(fiber.StatusBadRequest, msgVillageRequired)
	}
	if dreq.Lang == "" {
		dreq.Lang = i18n.DefaultLanguage
	}

	dashboard, err := h.deps.Dashboard.Dashboard(c.UserContext(), dreq)
	if err != nil {
		h.deps.Metrics.DashboardCalls.WithLabelValues("error").Inc()
		return err
	}
	h.deps.Metrics.DashboardCalls.WithLabelValues("success").Inc()
	return c.JSON(dashboard)
}

func (h *handlers) weatherAlerts(c *fiber.Ctx) error {
	if err := h.deps.Config.Require(config.SecretWeather, config.SecretPush, config.SecretBackend); err != nil {
		return err
	}

	report, err := h.deps.Alerts.Run(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"notified": report.Notified,
	})
}

// guestProfileRequest keeps id untyped so a non-string id reports
// "Missing id" rather than a JSON error.
type guestProfileRequest struct {
	ID               any     `json:"id"`
	SelectedLanguage *string `json:"selected_language"`
	State            *string `json:"state"`
	Village          *string `json:"village"`
	PreferredCrop    *string `json:"preferred_crop"`
	FCMToken         *string `json:"fcm_token"`
}

type guestProfileInput struct {
	ID string `validate:"required,uuid_v4"`
}

func (h *handlers) guestProfile(c *fiber.Ctx) error {
	if err := h.deps.Config.Require(config.SecretBackend); err != nil {
		return err
	}

	var req guestProfileRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidJSON)
	}

	id, _ := req.ID.(string)
	if err := validate.Struct(guestProfileInput{ID: id}); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, guestProfileMessage(err))
	}

	err := h.deps.Profiles.Upsert(c.UserContext(), store.Profile{
		ID:               id,
		SelectedLanguage: req.SelectedLanguage,
		State:            req.State,
		Village:          req.Village,
		PreferredCrop:    req.PreferredCrop,
		FCMToken:         req.FCMToken,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
