package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/farm-weather-alerts/internal/alert"
)

// BatchRunner runs one alert batch.
type BatchRunner interface {
	Run(ctx context.Context) (alert.Report, error)
}

// Scheduler triggers the alert batch on a fixed interval in-process.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    BatchRunner
	interval  time.Duration
	preflight func() error
	logger    *slog.Logger
}

// New creates a new Scheduler. preflight, when set, must succeed before
// Start schedules anything (e.g. a check for the alert secrets).
func New(runner BatchRunner, interval time.Duration, preflight func() error, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		preflight: preflight,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens one interval after Start; overlapping runs are skipped.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: invalid interval %s", s.interval)
	}
	if s.preflight != nil {
		if err := s.preflight(); err != nil {
			s.logger.Error("scheduler: alert batch not scheduled", "error", err)
			return fmt.Errorf("scheduler: %w", err)
		}
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.runOnce)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler: alert batch scheduled", "interval", s.interval.String())
	return nil
}

// runOnce executes a single batch bounded by the schedule interval.
func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	s.logger.Info("scheduler: running alert batch")
	report, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("scheduler: alert batch failed", "error", err)
		return
	}
	s.logger.Info("scheduler: completed alert batch", "run_id", report.RunID, "notified", report.Notified)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
