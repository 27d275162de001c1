// Package metrics declares the service's Prometheus counters. They are
// registered on the default registry and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsIngested counts postings newly persisted by the ingest path.
	JobsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobwatch_jobs_ingested_total",
		Help: "Number of new job postings persisted.",
	})

	// EventsDiscarded counts transport events dropped as malformed.
	EventsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobwatch_events_discarded_total",
		Help: "Number of pub/sub events skipped due to malformed payloads.",
	})

	// NotificationsSent counts per-recipient deliveries that succeeded.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobwatch_notifications_sent_total",
		Help: "Number of notifications delivered successfully.",
	})

	// NotificationsFailed counts per-recipient deliveries that failed.
	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobwatch_notifications_failed_total",
		Help: "Number of notification deliveries that failed.",
	})
)
