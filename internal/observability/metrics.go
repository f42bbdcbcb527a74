package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "farm_weather"

// Metrics holds the Prometheus counters and histograms for the alert batch
// and the dashboard path.
type Metrics struct {
	AlertRuns      prometheus.Counter
	UsersNotified  prometheus.Counter
	UsersSkipped   prometheus.Counter
	UserFailures   *prometheus.CounterVec // labels: stage={geocode,forecast,dispatch}
	AlertsByKind   *prometheus.CounterVec // labels: category={storm,wind,rain,none}
	BatchDuration  prometheus.Histogram
	DashboardCalls *prometheus.CounterVec // labels: outcome={success,error}
	GeocodeCache   *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AlertRuns,
		m.UsersNotified,
		m.UsersSkipped,
		m.UserFailures,
		m.AlertsByKind,
		m.BatchDuration,
		m.DashboardCalls,
		m.GeocodeCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AlertRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_runs_total",
			Help:      "Completed alert batch runs.",
		}),
		UsersNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_users_notified_total",
			Help:      "Users that received a push notification.",
		}),
		UsersSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_users_skipped_total",
			Help:      "Users with nothing to send (no alert in the next 24h).",
		}),
		UserFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_user_failures_total",
			Help:      "Per-user pipeline failures by stage.",
		}, []string{"stage"}),
		AlertsByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_classifications_total",
			Help:      "Forecast windows classified, by category.",
		}, []string{"category"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_batch_duration_seconds",
			Help:      "Duration of a complete alert batch.",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),
		DashboardCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_requests_total",
			Help:      "Current weather requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Coordinate cache lookups by result.",
		}, []string{"result"}),
	}
}
