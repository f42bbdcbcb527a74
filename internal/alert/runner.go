// Package alert classifies the next 24 hours of forecast for every farmer
// with a saved village and push token, and sends one localized notification
// per user when severe weather is expected.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/farm-weather-alerts/internal/common"
	"github.com/i474232898/farm-weather-alerts/internal/i18n"
	"github.com/i474232898/farm-weather-alerts/internal/observability"
	"github.com/i474232898/farm-weather-alerts/internal/store"
	"github.com/i474232898/farm-weather-alerts/internal/weather"
)

// ProfileLister reads the users eligible for alerts.
type ProfileLister interface {
	ListAlertable(ctx context.Context) ([]store.Profile, error)
}

// Forecaster fetches the short-range forecast.
type Forecaster interface {
	Forecast(ctx context.Context, at weather.Coordinates) ([]weather.ForecastSample, error)
}

// Renderer produces the localized title and body for a category.
type Renderer interface {
	Render(category, lang string) i18n.RenderedMessage
}

// Dispatcher delivers a rendered message to a device token.
type Dispatcher interface {
	Send(ctx context.Context, token string, msg i18n.RenderedMessage, category string) error
}

// OutcomeSink receives the report of every completed run.
type OutcomeSink interface {
	Publish(ctx context.Context, report Report) error
}

// Status is the result of one user's pipeline.
type Status string

const (
	StatusNotified Status = "notified"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Stage names the step at which a user's pipeline stopped with an error.
type Stage string

const (
	StageGeocode  Stage = "geocode"
	StageForecast Stage = "forecast"
	StageDispatch Stage = "dispatch"
)

// Outcome is the per-user result of a run.
type Outcome struct {
	UserID   string   `json:"user_id"`
	Status   Status   `json:"status"`
	Stage    Stage    `json:"stage,omitempty"`
	Category Category `json:"category,omitempty"`
	Language string   `json:"language,omitempty"`
	Err      error    `json:"-"`
}

// Report aggregates the outcomes of one run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
	Notified   int       `json:"notified"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

func newReport(runID string, started, finished time.Time, outcomes []Outcome) Report {
	r := Report{RunID: runID, StartedAt: started, FinishedAt: finished, Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case StatusNotified:
			r.Notified++
		case StatusSkipped:
			r.Skipped++
		case StatusFailed:
			r.Failed++
		}
	}
	return r
}

// Options tunes a Runner. Zero values select sequential processing, no
// per-call timeout, the real clock and no sink.
type Options struct {
	Workers     int
	CallTimeout time.Duration
	Clock       clockwork.Clock
	Sink        OutcomeSink
}

// Runner executes the alert batch.
type Runner struct {
	profiles   ProfileLister
	geocoder   weather.Geocoder
	forecaster Forecaster
	renderer   Renderer
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *observability.Metrics

	workers     int
	callTimeout time.Duration
	clock       clockwork.Clock
	sink        OutcomeSink
}

// NewRunner wires the batch stages. logger and metrics must be non-nil.
func NewRunner(
	profiles ProfileLister,
	geocoder weather.Geocoder,
	forecaster Forecaster,
	renderer Renderer,
	dispatcher Dispatcher,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts Options,
) *Runner {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{
		profiles:    profiles,
		geocoder:    geocoder,
		forecaster:  forecaster,
		renderer:    renderer,
		dispatcher:  dispatcher,
		logger:      logger,
		metrics:     metrics,
		workers:     max(opts.Workers, 1),
		callTimeout: opts.CallTimeout,
		clock:       clock,
		sink:        opts.Sink,
	}
}

// Run processes every eligible user once. It fails only when the user list
// cannot be read; per-user errors are recorded in the report. Upstream
// circuit breakers are bypassed so every user's calls are attempted.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	ctx = common.WithoutBreaker(ctx)
	runID := uuid.NewString()
	started := r.clock.Now()

	profiles, err := r.profiles.ListAlertable(ctx)
	if err != nil {
		r.logger.Error("alert batch aborted", "run_id", runID, "error", err)
		return Report{}, fmt.Errorf("list alertable profiles: %w", err)
	}
	recipients := eligible(profiles)
	r.logger.Info("alert batch started", "run_id", runID, "users", len(recipients), "workers", r.workers)

	outcomes := make([]Outcome, len(recipients))
	if r.workers == 1 {
		for i, p := range recipients {
			outcomes[i] = r.process(ctx, p)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.workers)
		for i, p := range recipients {
			i, p := i, p
			g.Go(func() error {
				outcomes[i] = r.process(ctx, p)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := newReport(runID, started, r.clock.Now(), outcomes)

	r.metrics.AlertRuns.Inc()
	r.metrics.BatchDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	r.logger.Info("alert batch finished",
		"run_id", runID,
		"users", len(recipients),
		"notified", report.Notified,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)

	if r.sink != nil {
		if err := r.sink.Publish(ctx, report); err != nil {
			r.logger.Warn("publish alert report failed", "run_id", runID, "error", err)
		}
	}
	return report, nil
}

// process runs geocode, forecast, classify, render and dispatch for one user.
func (r *Runner) process(ctx context.Context, p store.Profile) Outcome {
	lang := strings.TrimSpace(store.Value(p.SelectedLanguage))
	if lang == "" {
		lang = i18n.DefaultLanguage
	}
	out := Outcome{UserID: p.ID, Language: lang}

	callCtx, cancel := r.callContext(ctx)
	coords, err := r.geocoder.Geocode(callCtx, strings.TrimSpace(store.Value(p.Village)), strings.TrimSpace(store.Value(p.State)))
	cancel()
	if err != nil {
		return r.fail(out, StageGeocode, err)
	}

	callCtx, cancel = r.callContext(ctx)
	samples, err := r.forecaster.Forecast(callCtx, coords)
	cancel()
	if err != nil {
		return r.fail(out, StageForecast, err)
	}

	out.Category = Classify(samples)
	r.metrics.AlertsByKind.WithLabelValues(string(out.Category)).Inc()
	if out.Category == CategoryNone {
		out.Status = StatusSkipped
		r.metrics.UsersSkipped.Inc()
		r.logger.Debug("no alert for user", "user_id", p.ID)
		return out
	}

	msg := r.renderer.Render(string(out.Category), lang)

	callCtx, cancel = r.callContext(ctx)
	err = r.dispatcher.Send(callCtx, store.Value(p.FCMToken), msg, string(out.Category))
	cancel()
	if err != nil {
		return r.fail(out, StageDispatch, err)
	}

	out.Status = StatusNotified
	r.metrics.UsersNotified.Inc()
	r.logger.Debug("alert sent", "user_id", p.ID, "category", out.Category, "lang", lang)
	return out
}

func (r *Runner) fail(out Outcome, stage Stage, err error) Outcome {
	out.Status = StatusFailed
	out.Stage = stage
	out.Err = err
	r.metrics.UserFailures.WithLabelValues(string(stage)).Inc()
	r.logger.Warn("alert pipeline failed for user",
		"user_id", out.UserID,
		"stage", stage,
		"error", err,
	)
	return out
}

func (r *Runner) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.callTimeout)
}

// eligible keeps users with both a village and a device token.
func eligible(profiles []store.Profile) []store.Profile {
	out := make([]store.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.HasVillage() && strings.TrimSpace(store.Value(p.FCMToken)) != "" {
			out = append(out, p)
		}
	}
	return out
}
