package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_upstream_requests_total",
		Help: "Total number of calls made to the dispatch API, by operation and outcome.",
	},
		[]string{"operation", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_upstream_request_duration_seconds",
		Help:    "Latency of calls made to the dispatch API.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"operation"},
	)

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_logins_total",
		Help: "Total number of login attempts, by result.",
	},
		[]string{"result"},
	)

	AccessDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_access_decisions_total",
		Help: "Total number of view navigations, by access decision.",
	},
		[]string{"decision"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_active_sessions",
		Help: "Current number of sessions in the session cache.",
	})

	AuditEntriesQueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_audit_entries_queued_total",
		Help: "Total number of audit entries handed to the audit sink.",
	})

	AuditEntriesPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_audit_entries_published_total",
		Help: "Total number of audit entries published from the outbox.",
	})
)
