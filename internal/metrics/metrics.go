package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AutoProcessRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_autoprocess_runs_total",
			Help: "Total number of auto-process runs by outcome",
		},
		[]string{"outcome"},
	)

	AutoProcessTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_autoprocess_transitions_total",
			Help: "Bookings transitioned by the auto-process rules",
		},
		[]string{"action"},
	)

	AutoProcessFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_autoprocess_failures_total",
			Help: "Per-booking auto-process failures by phase",
		},
		[]string{"phase"},
	)

	AutoProcessRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gymdesk_autoprocess_run_duration_seconds",
			Help:    "Duration of auto-process runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SideEffectFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_side_effect_failures_total",
			Help: "Best-effort side effects that failed after commit",
		},
		[]string{"kind"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_emails_total",
			Help: "Emails by type and delivery status",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymdesk_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordAutoProcessRun(outcome string, durationSeconds float64) {
	AutoProcessRunsTotal.WithLabelValues(outcome).Inc()
	AutoProcessRunDuration.Observe(durationSeconds)
}

func RecordTransition(action string) {
	AutoProcessTransitionsTotal.WithLabelValues(action).Inc()
}

func RecordFailure(phase string) {
	AutoProcessFailuresTotal.WithLabelValues(phase).Inc()
}

func RecordSideEffectFailure(kind string) {
	SideEffectFailuresTotal.WithLabelValues(kind).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
