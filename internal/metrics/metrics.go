package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total emails sent",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total failed emails",
		},
	)

	JobsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_jobs_completed_total",
			Help: "Total mail jobs finished in completed state",
		},
	)

	JobsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_jobs_failed_total",
			Help: "Total mail jobs finished in failed state",
		},
	)

	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mail_jobs_in_flight",
			Help: "Mail jobs currently processing",
		},
	)

	JobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mail_job_duration_seconds",
			Help:    "Wall-clock duration of mail job execution",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

func Init() {
	prometheus.MustRegister(
		EmailsSent,
		EmailFailures,
		JobsCompleted,
		JobsFailed,
		JobsInFlight,
		JobDuration,
	)
}
