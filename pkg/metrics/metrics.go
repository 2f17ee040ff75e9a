package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	reelmint = "reelmint"

	generationJobsTotal    = "generation_jobs_total"
	generationDuration     = "generation_duration_seconds"
	providerPollsTotal     = "provider_polls_total"
	notificationsTotal     = "notifications_total"
	generationJobsInFlight = "generation_jobs_in_flight"

	outcomeLabel = "outcome"
	reasonLabel  = "reason"
	statusLabel  = "status"
)

/**
* Metrics definition
**/
var generationJobsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: reelmint,
		Name:      generationJobsTotal,
		Help:      "number of generation jobs that reached a terminal state",
	},
	[]string{outcomeLabel, reasonLabel},
)

var generationDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: reelmint,
		Name:      generationDuration,
		Help:      "wall-clock time from submission to terminal state",
		Buckets:   []float64{30, 60, 120, 300, 600, 900, 1200},
	},
	[]string{outcomeLabel},
)

var providerPollsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: reelmint,
		Name:      providerPollsTotal,
		Help:      "number of status polls against the generation provider",
	},
	[]string{statusLabel},
)

var notificationsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: reelmint,
		Name:      notificationsTotal,
		Help:      "number of completion notifications attempted",
	},
	[]string{outcomeLabel},
)

var generationJobsInFlightMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: reelmint,
		Name:      generationJobsInFlight,
		Help:      "number of generation jobs currently being orchestrated",
	},
)

func IncreaseGenerationJobsTotalMetric(outcome, reason string) {
	generationJobsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome, reasonLabel: reason}).Inc()
}

func ObserveGenerationDurationMetric(outcome string, d time.Duration) {
	generationDurationMetric.With(prometheus.Labels{outcomeLabel: outcome}).Observe(d.Seconds())
}

func IncreaseProviderPollsTotalMetric(status string) {
	providerPollsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseNotificationsTotalMetric(outcome string) {
	notificationsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func IncreaseGenerationJobsInFlightMetric() {
	generationJobsInFlightMetric.Inc()
}

func DecreaseGenerationJobsInFlightMetric() {
	generationJobsInFlightMetric.Dec()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(generationJobsTotalMetric)
	prometheus.MustRegister(generationDurationMetric)
	prometheus.MustRegister(providerPollsTotalMetric)
	prometheus.MustRegister(notificationsTotalMetric)
	prometheus.MustRegister(generationJobsInFlightMetric)
}
