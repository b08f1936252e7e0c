package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jaivikTh/nest-microsrv-kit/internal/config"
	"github.com/jaivikTh/nest-microsrv-kit/internal/gateway"
	"github.com/jaivikTh/nest-microsrv-kit/internal/handler"
	"github.com/jaivikTh/nest-microsrv-kit/internal/metrics"
	"github.com/jaivikTh/nest-microsrv-kit/internal/ratelimit"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
	"github.com/jaivikTh/nest-microsrv-kit/internal/router"
	"github.com/jaivikTh/nest-microsrv-kit/internal/rpc"
	"github.com/jaivikTh/nest-microsrv-kit/internal/security"
	"github.com/jaivikTh/nest-microsrv-kit/internal/service"
)

const (
	GatewayServiceName = "api-gateway"

	rateLimitSweepInterval = time.Minute
)

// Gateway is the HTTP front door. Auth runs in-process against the user
// store; every other resource call is dispatched to a backend.
type Gateway struct {
	cfg     *config.Config
	handler http.Handler
	cipher  *security.Cipher

	clients    []*rpc.Client
	memLimiter *ratelimit.MemoryStore
	redis      *redis.Client
}

func NewGateway(cfg *config.Config, users repository.UserStore) (*Gateway, error) {
	trusted, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	cipher, err := security.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("build cipher from ENCRYPTION_KEY: %w", err)
	}

	m := metrics.New(GatewayServiceName)
	g := &Gateway{cfg: cfg, cipher: cipher}

	userClient, err := rpc.Dial(UserServiceName, cfg.UserServiceAddr(), cfg.RPCTimeout, m)
	if err != nil {
		return nil, err
	}
	orderClient, err := rpc.Dial(OrderServiceName, cfg.OrderServiceAddr(), cfg.RPCTimeout, m)
	if err != nil {
		_ = userClient.Close()
		return nil, err
	}
	g.clients = []*rpc.Client{userClient, orderClient}

	store, err := g.rateLimitStore()
	if err != nil {
		g.close()
		return nil, err
	}

	auth := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL)
	dispatcher := gateway.NewDispatcher(userClient, orderClient)

	g.handler = router.New(router.Deps{
		Config:   cfg,
		Verifier: auth,
		Limiter:  ratelimit.New(store, rateTiers(cfg)...),
		Metrics:  m,

		TrustedProxies: trusted,
	}, router.Handlers{
		Auth:   handler.NewAuthHandler(auth),
		User:   handler.NewUserHandler(dispatcher),
		Order:  handler.NewOrderHandler(dispatcher),
		Health: handler.NewHealthHandler(GatewayServiceName, cfg.Version, cfg.Environment),
	})

	return g, nil
}

func (g *Gateway) rateLimitStore() (ratelimit.Store, error) {
	if g.cfg.RateLimitStore != config.RateLimitStoreRedis {
		g.memLimiter = ratelimit.NewMemoryStore()
		return g.memLimiter, nil
	}

	opts, err := redis.ParseURL(g.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	g.redis = redis.NewClient(opts)
	slog.Info("rate limit store ready", "driver", "redis", "addr", opts.Addr)

	return ratelimit.NewRedisStore(g.redis), nil
}

func rateTiers(cfg *config.Config) []ratelimit.Tier {
	return []ratelimit.Tier{
		{Name: "short", Limit: cfg.RateLimitShortLimit, TTL: cfg.RateLimitShortTTL},
		{Name: "medium", Limit: cfg.RateLimitMediumLimit, TTL: cfg.RateLimitMediumTTL},
		{Name: "long", Limit: cfg.RateLimitLongLimit, TTL: cfg.RateLimitLongTTL},
	}
}

func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Cipher is the AES cipher derived from ENCRYPTION_KEY.
func (g *Gateway) Cipher() *security.Cipher {
	return g.cipher
}

// Serve runs the HTTP server on lis until ctx ends, then closes the
// backend connections.
func (g *Gateway) Serve(ctx context.Context, lis net.Listener) error {
	defer g.close()

	srv := &http.Server{
		Handler:      g.handler,
		ReadTimeout:  g.cfg.ServerReadTimeout,
		WriteTimeout: g.cfg.ServerWriteTimeout,
		IdleTimeout:  g.cfg.ServerIdleTimeout,
	}

	eg, ctx := errgroup.WithContext(ctx)
	if g.memLimiter != nil {
		eg.Go(func() error {
			g.memLimiter.Run(ctx, rateLimitSweepInterval)
			return nil
		})
	}
	eg.Go(func() error {
		return serveHTTP(ctx, srv, lis, g.cfg.ShutdownTimeout)
	})

	return eg.Wait()
}

func (g *Gateway) close() {
	for _, c := range g.clients {
		if err := c.Close(); err != nil {
			slog.Warn("closing rpc client failed", "target", c.Target(), "error", err)
		}
	}
	if g.redis != nil {
		_ = g.redis.Close()
	}
}
