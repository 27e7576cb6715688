package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"maintrack/internal/log"
	"maintrack/internal/metrics"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	routeKey     ContextKey = "route"

	// HeaderRequestID is echoed back and accepted from trusted callers.
	HeaderRequestID = "X-Request-ID"
)

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.Logger
	metrics   *metrics.Metrics
}

// NewMiddleware creates a new trace middleware. logger and m may be nil.
func NewMiddleware(extractIP func(*http.Request) string, logger *log.Logger, m *metrics.Metrics) *Middleware {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Middleware{extractIP: extractIP, logger: logger, metrics: m}
}

// Middleware assigns a request id, installs a request-scoped logger,
// and logs and measures the request once it completes.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	withLogger := log.Middleware(m.logger, func(r *http.Request) string { return GetRequestID(r.Context()) })(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		route := new(string)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, routeKey, route)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		withLogger.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.LogHTTPEnd(log.WithLogger(ctx, m.logger.With(log.FieldRequestID, requestID)), r, rw.statusCode, duration.Milliseconds(), clientIP)

		label := *route
		if label == "" {
			label = "unmatched"
		}
		m.metrics.ObserveRequest(label, r.Method, rw.statusCode, duration)
	})
}

// SetRoute records the matched route pattern for metrics labels; it keeps
// raw paths with ids out of label values.
func SetRoute(ctx context.Context, pattern string) {
	if p, ok := ctx.Value(routeKey).(*string); ok {
		*p = pattern
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
