package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jaivikTh/nest-microsrv-kit/internal/metrics"
	"github.com/jaivikTh/nest-microsrv-kit/internal/ratelimit"
	"github.com/jaivikTh/nest-microsrv-kit/internal/response"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// RateLimit counts the request against every tier for its
// (client ip, principal, route) key. It must run after routing so the route
// pattern is known, and after RequireAuth on protected routes.
func RateLimit(limiter *ratelimit.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID int64
			if p, ok := PrincipalFromContext(r.Context()); ok {
				userID = p.UserID
			}

			key := ratelimit.Key(extractClientIP(r), userID, routePattern(r))

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request",
					"limit_key", key,
					"error", err,
				)
			}

			if !decision.Allowed {
				m.ObserveRateLimited(decision.Tier)
				slog.WarnContext(r.Context(), "rate limit exceeded",
					"limit_key", key,
					"tier", decision.Tier,
				)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision)))
				response.WriteError(w, r, apierror.TooManyRequests("Too many requests. Please try again later."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d ratelimit.Decision) int {
	return max(1, int(math.Ceil(d.RetryAfter.Seconds())))
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return r.Method + " " + pattern
		}
	}
	return r.Method + " " + r.URL.Path
}
