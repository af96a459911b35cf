package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "worktrack"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the scheduler's collectors. Collectors are registered on the
// registry passed to New rather than the global one, so tests can create as
// many as they like.
type Metrics struct {
	registry *prometheus.Registry

	jobTicks    *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	deliveries  *prometheus.CounterVec
	restarts    *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		jobTicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_ticks_total",
				Help:      "Total number of job ticks by outcome.",
			},
			[]string{"job", "outcome"},
		),
		jobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_tick_duration_seconds",
				Help:      "Duration of job ticks.",
				Buckets:   []float64{.05, .1, .5, 1, 5, 15, 60, 300},
			},
			[]string{"job"},
		),
		deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_deliveries_total",
				Help:      "Total number of notification channel deliveries by outcome.",
			},
			[]string{"channel", "outcome"},
		),
		restarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runner_restarts_total",
				Help:      "Total number of job runner restarts after a crash.",
			},
			[]string{"job"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// ObserveTick records one finished tick of job.
func (m *Metrics) ObserveTick(job string, d time.Duration, err error) {
	m.jobTicks.WithLabelValues(job, outcome(err)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// ObserveDelivery records one push or email attempt.
func (m *Metrics) ObserveDelivery(channel string, err error) {
	m.deliveries.WithLabelValues(channel, outcome(err)).Inc()
}

// ObserveRestart records that job's runner crashed and was restarted.
func (m *Metrics) ObserveRestart(job string) {
	m.restarts.WithLabelValues(job).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
