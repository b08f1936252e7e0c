package router

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/jaivikTh/nest-microsrv-kit/internal/config"
	"github.com/jaivikTh/nest-microsrv-kit/internal/handler"
	"github.com/jaivikTh/nest-microsrv-kit/internal/metrics"
	"github.com/jaivikTh/nest-microsrv-kit/internal/middleware"
	"github.com/jaivikTh/nest-microsrv-kit/internal/ratelimit"
	"github.com/jaivikTh/nest-microsrv-kit/internal/response"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Order  *handler.OrderHandler
	Health *handler.HealthHandler
}

type Deps struct {
	Config   *config.Config
	Verifier middleware.TokenVerifier
	Limiter  *ratelimit.Limiter
	Metrics  *metrics.Metrics

	// TrustedProxies are the peers allowed to set X-Forwarded-For.
	TrustedProxies []netip.Prefix
}

type route struct {
	method  string
	pattern string
	public  bool
	handle  handler.HandlerFunc
}

func routes(h Handlers) []route {
	return []route{
		{http.MethodPost, "/auth/register", true, h.Auth.Register},
		{http.MethodPost, "/auth/login", true, h.Auth.Login},
		{http.MethodGet, "/auth/profile", false, h.Auth.Profile},
		{http.MethodPost, "/auth/verify", false, h.Auth.Verify},

		{http.MethodGet, "/users", false, h.User.List},
		{http.MethodPost, "/users", false, h.User.Create},
		{http.MethodGet, "/users/{id}", false, h.User.Get},
		{http.MethodPut, "/users/{id}", false, h.User.Update},
		{http.MethodDelete, "/users/{id}", false, h.User.Delete},

		{http.MethodGet, "/orders", false, h.Order.List},
		{http.MethodPost, "/orders", false, h.Order.Create},
		{http.MethodGet, "/orders/user/{userId}", false, h.Order.ListByUser},
		{http.MethodGet, "/orders/{id}", false, h.Order.Get},
		{http.MethodPut, "/orders/{id}", false, h.Order.Update},
		{http.MethodDelete, "/orders/{id}", false, h.Order.Delete},
	}
}

func New(deps Deps, h Handlers) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.ClientIP(deps.TrustedProxies))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging)
	r.Use(deps.Metrics.Middleware)
	r.Use(middleware.CORS(cfg.CORSOrigins()))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.WriteError(w, req, apierror.NotFound("Cannot "+req.Method+" "+req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.WriteError(w, req, apierror.NotFound("Method not allowed"))
	})

	r.Method(http.MethodGet, "/health", handler.Adapt(h.Health.Health))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	guard := []func(http.Handler) http.Handler{
		middleware.RateLimit(deps.Limiter, deps.Metrics),
		middleware.PayloadLimit(cfg.MaxPayloadBytes),
		middleware.ThreatScan(deps.Metrics),
		middleware.Sanitize,
	}
	authenticated := append([]func(http.Handler) http.Handler{middleware.RequireAuth(deps.Verifier)}, guard...)

	for _, rt := range routes(h) {
		chain := guard
		if !rt.public {
			chain = authenticated
		}
		r.With(chain...).Method(rt.method, rt.pattern, handler.Adapt(rt.handle))
	}

	return r
}
