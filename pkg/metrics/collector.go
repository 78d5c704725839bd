package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests labeled by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	ledgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_entries_appended_total",
			Help: "Ledger entries appended labeled by kind and initial status",
		},
		[]string{"kind", "status"},
	)
	ledgerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transitions_total",
			Help: "Ledger entry status transitions labeled by kind and target status",
		},
		[]string{"kind", "to"},
	)
	investmentsOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investments_opened_total",
			Help: "Investment positions opened labeled by plan",
		},
		[]string{"plan"},
	)
	positionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investment_transitions_total",
			Help: "Investment position status transitions labeled by target status",
		},
		[]string{"to"},
	)
	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	route = orUnknown(route)
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordEntryAppended counts a new ledger entry.
func RecordEntryAppended(kind, status string) {
	ledgerEntriesTotal.WithLabelValues(orUnknown(kind), orUnknown(status)).Inc()
}

// RecordEntryTransition counts a ledger status transition.
func RecordEntryTransition(kind, to string) {
	ledgerTransitionsTotal.WithLabelValues(orUnknown(kind), orUnknown(to)).Inc()
}

// RecordInvestmentOpened counts a newly opened position.
func RecordInvestmentOpened(planID string) {
	investmentsOpenedTotal.WithLabelValues(orUnknown(planID)).Inc()
}

// RecordPositionTransition counts a position status transition.
func RecordPositionTransition(to string) {
	positionTransitionsTotal.WithLabelValues(orUnknown(to)).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}
