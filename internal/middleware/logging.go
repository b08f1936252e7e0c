package middleware

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jaivikTh/nest-microsrv-kit/internal/logger"
	"github.com/jaivikTh/nest-microsrv-kit/internal/response"
	"github.com/jaivikTh/nest-microsrv-kit/internal/security"
)

const requestIDHeader = "X-Request-ID"

// Logging assigns the request id, then writes one line when the request
// arrives (debug) and one when it completes. Query values under sensitive
// keys are masked.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		ctx, outcome := response.TrackOutcome(ctx)
		r = r.WithContext(ctx)

		slog.DebugContext(ctx, "incoming request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", maskedQuery(r),
			"client_ip", extractClientIP(r),
			"user_agent", r.UserAgent(),
		)

		started := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(started).Milliseconds(),
			"bytes", wrapped.bytes,
			"client_ip", extractClientIP(r),
		}

		if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
			attrs = append(attrs, "route", rctx.RoutePattern())
		}

		if outcome.Kind != "" {
			attrs = append(attrs, "error_type", string(outcome.Kind), "error_message", outcome.Message)
		}

		switch {
		case wrapped.status >= 500:
			slog.ErrorContext(ctx, "request completed", attrs...)
		case wrapped.status >= 400:
			slog.WarnContext(ctx, "request completed", attrs...)
		default:
			slog.InfoContext(ctx, "request completed", attrs...)
		}
	})
}

func maskedQuery(r *http.Request) map[string]any {
	values := r.URL.Query()
	if len(values) == 0 {
		return nil
	}

	flat := make(map[string]any, len(values))
	for key, v := range values {
		if len(v) == 1 {
			flat[key] = v[0]
		} else {
			flat[key] = v
		}
	}
	return security.MaskSensitiveData(flat)
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.status = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
