package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Metrics middleware records HTTP metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// normalizePath replaces path identifiers with placeholders so metric
// cardinality stays bounded.
// /api/v1/units/A-101/bills -> /api/v1/units/:id/bills
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/units/"):
		rest := path[len("/api/v1/units/"):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/api/v1/units/:id" + rest[i:]
		}
		if rest != "" {
			return "/api/v1/units/:id"
		}

	case strings.HasPrefix(path, "/api/v1/transactions/"):
		if path != "/api/v1/transactions/" {
			return "/api/v1/transactions/:id"
		}

	case strings.HasPrefix(path, "/api/v1/imports/"):
		if path != "/api/v1/imports/" {
			return "/api/v1/imports/:id"
		}

	case strings.HasPrefix(path, "/api/v1/ledger/consistency/"):
		if path != "/api/v1/ledger/consistency/" {
			return "/api/v1/ledger/consistency/:id"
		}
	}

	return path
}
