package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	applog "budget/internal/log"

	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

// RequestIDKey is the context key for request ID
const RequestIDKey ContextKey = "request_id"

// HeaderRequestID carries the request ID in and out of the server.
const HeaderRequestID = "X-Request-ID"

// Middleware assigns a request ID and logs each request on completion.
type Middleware struct {
	logger    *applog.Logger
	extractIP func(*http.Request) string
	total     atomic.Int64
}

func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{logger: logger, extractIP: extractIP}
}

// Middleware returns HTTP middleware for request tracing. An incoming
// X-Request-ID that parses as a UUID is kept; anything else is replaced.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.total.Add(1)

		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		level := slog.LevelInfo
		switch {
		case rw.statusCode >= 500:
			level = slog.LevelError
		case rw.statusCode >= 400:
			level = slog.LevelWarn
		}

		fields := applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
			WithHTTPResponse(rw.statusCode, time.Since(start).Milliseconds())
		fields[applog.FieldRequestID] = requestID
		fields[applog.FieldClientIP] = clientIP
		m.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
	})
}

// TotalRequests returns how many requests passed through the middleware.
func (m *Middleware) TotalRequests() int64 {
	return m.total.Load()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID reads the ID set by Middleware from r's context.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}
