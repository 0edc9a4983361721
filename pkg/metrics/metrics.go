package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsCollectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_events_collected_total",
			Help: "Total number of activity events collected from GitHub (count)",
		},
		[]string{"user"},
	)

	CollectionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_collection_errors_total",
			Help: "Total number of failed per-user event collections (count)",
		},
		[]string{"user"},
	)

	CandidatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "poller_candidates_total",
			Help: "Total number of commit candidates produced by aggregation (count)",
		},
	)

	CommitFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_commit_fetches_total",
			Help: "Total number of full-commit detail fetches (count)",
		},
		[]string{"status"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_notifications_total",
			Help: "Total number of Telegram notification dispatches (count)",
		},
		[]string{"status"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poller_run_duration_ms",
			Help:    "Duration of a full polling run in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
	)

	RunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "poller_runs_total",
			Help: "Total number of polling runs (count)",
		},
	)

	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of idempotency store operations (count)",
		},
		[]string{"operation", "status"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_ms",
			Help:    "Duration of idempotency store operations in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"operation"},
	)

	OutboundRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbound_requests_total",
			Help: "Total number of outbound HTTP requests (count)",
		},
		[]string{"host", "method", "status"},
	)

	OutboundRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outbound_request_duration_ms",
			Help:    "Duration of outbound HTTP requests in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"host", "method"},
	)

	GitHubRateLimitRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "github_rate_limit_remaining",
			Help: "Remaining GitHub API quota as reported by the last response (count)",
		},
		[]string{"resource"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

func RegisterPollerMetrics() {
	prometheus.MustRegister(EventsCollectedTotal)
	prometheus.MustRegister(CollectionErrorsTotal)
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(CommitFetchesTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(RunsTotal)
}

func RegisterStoreMetrics() {
	prometheus.MustRegister(StoreOperationsTotal)
	prometheus.MustRegister(StoreOperationDuration)
}

func RegisterOutboundMetrics() {
	prometheus.MustRegister(OutboundRequestsTotal)
	prometheus.MustRegister(OutboundRequestDuration)
	prometheus.MustRegister(GitHubRateLimitRemaining)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterServerMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func ObserveRunDuration(duration time.Duration) {
	RunDuration.Observe(float64(duration.Milliseconds()))
}

func ObserveStoreOperation(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

func SetGitHubRateLimitRemaining(resource string, remaining int) {
	GitHubRateLimitRemaining.WithLabelValues(resource).Set(float64(remaining))
}
