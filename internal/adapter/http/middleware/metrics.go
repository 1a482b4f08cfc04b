package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/budgetledger/internal/infrastructure/metrics"
)

// MetricsMiddleware records request counters and latencies.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Wrap wraps an http.Handler with metrics recording.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := normalizePath(r.URL.Path)
		m.metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
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

// normalizePath collapses resource IDs so the path label stays low
// cardinality: /api/v1/budget-lines/01ABC/movements becomes
// /api/v1/budget-lines/:id/movements.
func normalizePath(path string) string {
	for _, resource := range []string{"/api/v1/budget-lines/", "/api/v1/transfers/", "/api/v1/exercises/"} {
		if !strings.HasPrefix(path, resource) {
			continue
		}

		rest := path[len(resource):]
		if rest == "" {
			break
		}

		suffix := ""
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			suffix = rest[i:]
		}

		return resource + ":id" + suffix
	}

	return path
}
