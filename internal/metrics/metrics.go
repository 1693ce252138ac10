// Package metrics provides Prometheus instrumentation for the scoring service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudscope",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraudscope",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ScoringRequestsTotal counts scoring requests by kind and outcome.
	ScoringRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudscope",
			Name:      "scoring_requests_total",
			Help:      "Total scoring requests by kind (single|batch) and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// FraudPredictionsTotal counts individual predictions by assigned label.
	FraudPredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudscope",
			Name:      "fraud_predictions_total",
			Help:      "Total predictions produced, by assigned label.",
		},
		[]string{"label"},
	)

	// ScoringDuration observes end-to-end batch scoring latency.
	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraudscope",
			Name:      "scoring_duration_seconds",
			Help:      "End-to-end batch scoring duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// BatchRows observes uploaded batch sizes.
	BatchRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraudscope",
			Name:      "batch_rows",
			Help:      "Row counts of uploaded scoring batches.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	// MissingValueRowsTotal counts rows that needed default substitution.
	MissingValueRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fraudscope",
			Name:      "missing_value_rows_total",
			Help:      "Rows with missing required values filled with defaults.",
		},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fraudscope",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ScoringRequestsTotal,
		FraudPredictionsTotal,
		ScoringDuration,
		BatchRows,
		MissingValueRowsTotal,
		ActiveWebSocketClients,
	)
}

// ObserveBatch records per-batch scoring metrics in one place.
func ObserveBatch(rows int, fraud, notFraud int, missingRows int, elapsed time.Duration) {
	BatchRows.Observe(float64(rows))
	ScoringDuration.Observe(elapsed.Seconds())
	FraudPredictionsTotal.WithLabelValues("fraud").Add(float64(fraud))
	FraudPredictionsTotal.WithLabelValues("not_fraud").Add(float64(notFraud))
	if missingRows > 0 {
		MissingValueRowsTotal.Add(float64(missingRows))
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the /metrics endpoint handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func statusBucket(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
