package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the whole request. Backend calls inherit the deadline from
// the context and fail as timed out; reading a slow body is cut off at the
// same instant.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			// not every writer supports deadlines (httptest does not)
			_ = http.NewResponseController(w).SetReadDeadline(time.Now().Add(timeout))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
