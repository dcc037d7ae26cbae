package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	backofficeRequests   *prometheus.CounterVec
	backofficeLatency    *prometheus.HistogramVec
	backofficeErrors     *prometheus.CounterVec
	searchesTotal        *prometheus.CounterVec
	ruleChangesTotal     *prometheus.CounterVec
	tasksEnqueuedTotal   *prometheus.CounterVec
	crmSyncFailuresTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the backoffice.
func RegisterMetrics() {
	registerOnce.Do(func() {
		backofficeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_requests_total",
			Help: "Total number of backoffice requests served.",
		}, []string{"method", "route", "status"})

		backofficeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_latency_seconds",
			Help:    "Latency distribution for backoffice requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		backofficeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_errors_total",
			Help: "Total number of error responses returned by backoffice endpoints.",
		}, []string{"method", "route", "status"})

		searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_searches_total",
			Help: "Searches executed per entity, by outcome.",
		}, []string{"entity", "outcome"})

		ruleChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_rule_changes_total",
			Help: "Offer validation rule changes, by action.",
		}, []string{"action"})

		tasksEnqueuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_tasks_enqueued_total",
			Help: "Tasks pushed to the background queue, by task name.",
		}, []string{"task"})

		crmSyncFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_crm_sync_failures_total",
			Help: "CRM synchronisation events that could not be published.",
		}, []string{"entity"})

		prometheus.MustRegister(
			backofficeRequests,
			backofficeLatency,
			backofficeErrors,
			searchesTotal,
			ruleChangesTotal,
			tasksEnqueuedTotal,
			crmSyncFailuresTotal,
		)
	})
}

// BackofficeRequests exposes the counter for backoffice requests.
func BackofficeRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return backofficeRequests
}

// BackofficeLatency exposes the latency histogram for backoffice requests.
func BackofficeLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return backofficeLatency
}

// BackofficeErrors exposes the counter for backoffice error responses.
func BackofficeErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return backofficeErrors
}

// Searches counts list searches. Outcome is "results", "empty" or "skipped".
func Searches() *prometheus.CounterVec {
	RegisterMetrics()
	return searchesTotal
}

// RuleChanges counts offer validation rule mutations.
func RuleChanges() *prometheus.CounterVec {
	RegisterMetrics()
	return ruleChangesTotal
}

// TasksEnqueued counts queued background tasks.
func TasksEnqueued() *prometheus.CounterVec {
	RegisterMetrics()
	return tasksEnqueuedTotal
}

// CRMSyncFailures counts dropped CRM events.
func CRMSyncFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return crmSyncFailuresTotal
}
