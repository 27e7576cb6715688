package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the request logger, or one wrapping slog.Default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l
	}
	return &Logger{Logger: slog.Default(), component: ComponentApp}
}

// Middleware puts a request-scoped logger carrying the request id into the
// request context.
func Middleware(base *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.WithComponent(ComponentHTTP)
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), l)))
		})
	}
}

// LogHTTPEnd logs a completed request at a level chosen by status code.
func LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)

	l := FromContext(ctx)
	l.Logger.Log(ctx, level, "HTTP request completed", l.args(fields.ToSlice())...)
}

// LogRecordCreated logs a persisted maintenance record.
func LogRecordCreated(ctx context.Context, id, period string, grandTotal float64, payments, particulars int) {
	fields := NewFields().
		WithRecord(id, period, grandTotal, payments, particulars).
		WithOperation(OpCreate)
	FromContext(ctx).WithComponent(ComponentRecords).InfoContext(ctx, "Maintenance record created", fields.ToSlice()...)
}

// LogError logs err with a component, operation and error category.
func LogError(ctx context.Context, msg string, err error, component, operation, errorType string) {
	fields := NewFields().WithError(err).WithOperation(operation).WithErrorType(errorType)
	FromContext(ctx).WithComponent(component).ErrorContext(ctx, msg, fields.ToSlice()...)
}
