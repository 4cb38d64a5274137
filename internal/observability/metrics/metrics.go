package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "library_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loanOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_loan_operations_total",
		Help: "Loan lifecycle operations by operation and result",
	}, []string{"operation", "result"})

	loansMarkedDelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_loans_marked_delayed_total",
		Help: "Loans moved from active to delayed by the overdue sweep",
	})

	notificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_loan_notifications_total",
		Help: "Loan notification jobs published, by type and result",
	}, []string{"type", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLoanOperation counts one engine call; result is "ok" or a short error kind.
func ObserveLoanOperation(operation, result string) {
	loanOperations.WithLabelValues(operation, result).Inc()
}

func AddLoansMarkedDelayed(n int) {
	if n > 0 {
		loansMarkedDelayed.Add(float64(n))
	}
}

func ObserveNotification(typ, result string) {
	notificationsPublished.WithLabelValues(typ, result).Inc()
}
