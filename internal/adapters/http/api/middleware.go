package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/okian/discmatch/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		code := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, durationMs)

		if wrapped.statusCode >= http.StatusBadRequest {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType(wrapped.statusCode))
		}
	}
}

// errorType buckets a failing status code for the error metrics.
func errorType(statusCode int) string {
	switch statusCode {
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "upstream"
	}
	if statusCode >= http.StatusInternalServerError {
		return "server_error"
	}
	return "client_error"
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// EdgeConfig configures the middleware in front of every route.
type EdgeConfig struct {
	AllowedOrigins []string
	// RateLimitRequests per RateLimitWindow per client IP; 0 disables.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Edge wraps h with CORS handling for the browser UI and a per-IP rate limit.
func Edge(h http.Handler, cfg EdgeConfig) http.Handler {
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
		h = httprate.Limit(cfg.RateLimitRequests, cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, r, NewKind("api.edge", ErrRateLimited))
			}),
		)(h)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})(h)
}
