package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	supplierFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supplier_fetch_duration_seconds",
			Help:    "Histogram of per-supplier catalog fetch durations.",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60},
		},
		[]string{"supplier", "outcome"},
	)
	supplierProductsFetched = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "supplier_products_fetched",
			Help: "Products returned by the last fetch per supplier.",
		},
		[]string{"supplier"},
	)
	syncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_sync_runs_total",
			Help: "Total number of supplier sync runs.",
		},
		[]string{"supplier", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(supplierFetchDuration)
	prometheus.MustRegister(supplierProductsFetched)
	prometheus.MustRegister(syncRunsTotal)
}

// RecordRequest records metrics for one HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordSupplierFetch records one connector fetch attempt.
func RecordSupplierFetch(supplier string, count int, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else {
		supplierProductsFetched.WithLabelValues(supplier).Set(float64(count))
	}
	supplierFetchDuration.WithLabelValues(supplier, outcome).Observe(duration.Seconds())
}

// RecordSyncRun records the final status of one supplier sync run.
func RecordSyncRun(supplier, status string) {
	syncRunsTotal.WithLabelValues(supplier, status).Inc()
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler returns the HTTP handler exporting Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
