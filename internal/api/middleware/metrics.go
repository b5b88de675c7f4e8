package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector feeds the health endpoint's request and error counters.
// The counters live on the server; the collector only holds pointers.
type MetricsCollector struct {
	requests *atomic.Int64
	errors   *atomic.Int64
}

func NewMetricsCollector(requests, errors *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{requests: requests, errors: errors}
}

// Middleware counts every request, and counts an error for any 4xx or 5xx
// response.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requests.Add(1)
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		if rw.statusCode >= http.StatusBadRequest {
			mc.errors.Add(1)
		}
	})
}
