package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledring",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by operation and status code",
	}, []string{"operation", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledring",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency by operation",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// ObserveHTTPRequest records one API request.
func ObserveHTTPRequest(operation string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
