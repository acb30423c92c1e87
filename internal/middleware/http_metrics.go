// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pathNormalizer is a compiled regex for normalizing dynamic path segments.
var pathNormalizer = regexp.MustCompile(`/[^/]+`)

// normalizePath converts paths with dynamic segments to route patterns to prevent
// cardinality explosion in metrics. This maps paths like /posts/123 to /posts/{id}.
func normalizePath(path string) string {
	// Exact matches for static routes (no normalization needed)
	staticRoutes := map[string]bool{
		"/":                 true,
		"/posts":            true,
		"/feed":             true,
		"/trends":           true,
		"/trends/market":    true,
		"/trends/community": true,
		"/trends/sectors":   true,
		"/trends/summary":   true,
		"/trends/detect":    true,
		"/health":           true,
		"/ready":            true,
		"/metrics":          true,
	}

	if staticRoutes[path] {
		return path
	}

	// Pattern-based normalization for dynamic routes
	// Handle specific known patterns first for accuracy

	// /posts/{id}/... patterns
	if strings.HasPrefix(path, "/posts/") {
		parts := strings.Split(path, "/")
		if len(parts) >= 3 {
			// /posts/{id}/engagement, /posts/{id}/breakdown
			if len(parts) == 4 && (parts[3] == "engagement" || parts[3] == "breakdown") {
				return "/posts/{id}/" + parts[3]
			}
			// /posts/{id}
			if len(parts) == 3 && parts[2] != "" {
				return "/posts/{id}"
			}
		}
	}

	// /users/{id}/... patterns
	if strings.HasPrefix(path, "/users/") {
		parts := strings.Split(path, "/")
		if len(parts) == 4 {
			switch parts[3] {
			case "posts", "reputation", "accuracy":
				return "/users/{id}/" + parts[3]
			}
		}
		if len(parts) == 3 && parts[2] != "" {
			return "/users/{id}"
		}
	}

	// /trends/tickers/{ticker}
	if strings.HasPrefix(path, "/trends/tickers/") {
		parts := strings.Split(path, "/")
		if len(parts) == 4 && parts[3] != "" {
			return "/trends/tickers/{ticker}"
		}
	}

	// /market/snapshot/{ticker}
	if strings.HasPrefix(path, "/market/snapshot/") {
		parts := strings.Split(path, "/")
		if len(parts) == 4 && parts[3] != "" {
			return "/market/snapshot/{ticker}"
		}
	}

	// Fallback: return as-is for unknown patterns
	// This ensures we don't accidentally break metrics for new routes
	return path
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// newMetricsResponseWriter creates a new metricsResponseWriter with default 200 status.
func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// HTTPMetrics is a middleware that records HTTP request metrics.
// It captures duration, request/response sizes, and request counts.
// Health check endpoints (/health, /ready) are excluded from metrics to avoid cardinality issues.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exclude health check endpoints from metrics
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			// Wrap response writer to capture status and size
			mrw := newMetricsResponseWriter(w)

			// Get request size from Content-Length header
			requestSize := int64(0)
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					requestSize = size
				}
			}

			// Call the next handler
			next.ServeHTTP(mrw, r)

			// Calculate duration in seconds
			duration := time.Since(start).Seconds()

			// Normalize path to prevent cardinality explosion
			normalizedPath := normalizePath(r.URL.Path)

			// Record metrics
			metrics.ObserveHTTPRequest(
				r.Method,
				normalizedPath,
				strconv.Itoa(mrw.statusCode),
				duration,
				requestSize,
				mrw.size,
			)
		})
	}
}
