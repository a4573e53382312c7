package observer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true

	dbOperationLabels  = []string{"operation", "entity", "organization_id", "status"}
	domainEventLabels  = []string{"organization_id"}
	domainTypedLabels  = []string{"organization_id", "type"}
	ingestionJobLabels = []string{"organization_id", "status"}

	// DatabaseOperationDurationSeconds tracks repository operation latency.
	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "receptionist_core_db_operation_duration_seconds",
			Help:    "Duration of database operations, labeled by operation, entity and outcome.",
			Buckets: prometheus.DefBuckets,
		},
		dbOperationLabels,
	)

	// MessagesCreatedTotal counts messages persisted, by direction.
	MessagesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_core_messages_created_total",
			Help: "Total number of messages created.",
		},
		domainTypedLabels,
	)

	// ConsentViolationsTotal counts rejected outbound sends to opted-out contacts.
	ConsentViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_core_consent_violations_total",
			Help: "Total number of outbound messages rejected because the contact opted out.",
		},
		domainEventLabels,
	)

	// InsufficientBalanceTotal counts debits rejected for lack of funds.
	InsufficientBalanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_core_insufficient_balance_total",
			Help: "Total number of debits rejected due to insufficient prepaid balance.",
		},
		domainEventLabels,
	)

	// BalanceTransactionsTotal counts applied ledger entries, by type.
	BalanceTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_core_balance_transactions_total",
			Help: "Total number of balance transactions applied to the ledger.",
		},
		domainTypedLabels,
	)

	// JobsScheduledTotal counts scheduled jobs created, by type.
	JobsScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_core_jobs_scheduled_total",
			Help: "Total number of scheduled jobs created.",
		},
		domainTypedLabels,
	)

	// JobsClaimedTotal counts jobs claimed by external workers.
	JobsClaimedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_core_jobs_claimed_total",
			Help: "Total number of scheduled jobs claimed for processing.",
		},
		domainEventLabels,
	)

	// IngestionTasksTotal counts knowledge ingestion outcomes.
	IngestionTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_core_ingestion_tasks_total",
			Help: "Total number of knowledge source ingestion tasks, by outcome.",
		},
		ingestionJobLabels,
	)

	// IngestionQueueLength tracks the ingestion worker pool backlog.
	IngestionQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "receptionist_core_ingestion_queue_length",
			Help: "Approximate number of ingestion tasks waiting for a worker.",
		},
	)
)

// InitMetrics toggles metric collection. Metrics are registered via promauto
// regardless; this only gates the helper functions.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// sanitizeOrg ensures the organization label is valid or returns a default value.
func sanitizeOrg(orgID string) string {
	if orgID == "" {
		return "unknown"
	}
	return orgID
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity, orgID string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, sanitizeOrg(orgID), status).Observe(duration.Seconds())
}

// IncMessagesCreated increments the messages created counter.
func IncMessagesCreated(orgID, direction string) {
	if !metricsEnabled {
		return
	}
	MessagesCreatedTotal.WithLabelValues(sanitizeOrg(orgID), direction).Inc()
}

// IncConsentViolation increments the consent violation counter.
func IncConsentViolation(orgID string) {
	if !metricsEnabled {
		return
	}
	ConsentViolationsTotal.WithLabelValues(sanitizeOrg(orgID)).Inc()
}

// IncInsufficientBalance increments the rejected-debit counter.
func IncInsufficientBalance(orgID string) {
	if !metricsEnabled {
		return
	}
	InsufficientBalanceTotal.WithLabelValues(sanitizeOrg(orgID)).Inc()
}

// IncBalanceTransaction increments the ledger entry counter.
func IncBalanceTransaction(orgID, txnType string) {
	if !metricsEnabled {
		return
	}
	BalanceTransactionsTotal.WithLabelValues(sanitizeOrg(orgID), txnType).Inc()
}

// IncJobScheduled increments the jobs scheduled counter.
func IncJobScheduled(orgID, jobType string) {
	if !metricsEnabled {
		return
	}
	JobsScheduledTotal.WithLabelValues(sanitizeOrg(orgID), jobType).Inc()
}

// IncJobClaimed increments the jobs claimed counter.
func IncJobClaimed(orgID string) {
	if !metricsEnabled {
		return
	}
	JobsClaimedTotal.WithLabelValues(sanitizeOrg(orgID)).Inc()
}

// IncIngestionTask records an ingestion task outcome.
func IncIngestionTask(orgID, status string) {
	if !metricsEnabled {
		return
	}
	IngestionTasksTotal.WithLabelValues(sanitizeOrg(orgID), status).Inc()
}

// SetIngestionQueueLength sets the current ingestion pool backlog.
func SetIngestionQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	IngestionQueueLength.Set(float64(length))
}
