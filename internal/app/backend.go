package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/jaivikTh/nest-microsrv-kit/internal/command"
	"github.com/jaivikTh/nest-microsrv-kit/internal/config"
	"github.com/jaivikTh/nest-microsrv-kit/internal/metrics"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
	"github.com/jaivikTh/nest-microsrv-kit/internal/rpc"
	"github.com/jaivikTh/nest-microsrv-kit/internal/service"
)

const (
	UserServiceName  = "user-service"
	OrderServiceName = "order-service"
)

// Backend is one command-serving process: an rpc.Server plus an optional
// metrics listener.
type Backend struct {
	cfg     *config.Config
	server  *rpc.Server
	metrics *metrics.Metrics
}

func NewUserBackend(cfg *config.Config, users repository.UserStore) *Backend {
	b := newBackend(cfg, UserServiceName)
	command.RegisterUserCommands(b.server, service.NewUserService(users))
	return b
}

func NewOrderBackend(cfg *config.Config, orders repository.OrderStore) *Backend {
	b := newBackend(cfg, OrderServiceName)
	command.RegisterOrderCommands(b.server, service.NewOrderService(orders))
	return b
}

func newBackend(cfg *config.Config, name string) *Backend {
	m := metrics.New(name)
	burst := int(math.Ceil(cfg.RPCMaxCommandsPerSecond))

	return &Backend{
		cfg:     cfg,
		metrics: m,
		server: rpc.NewServer(name,
			rpc.WithAdmissionLimit(cfg.RPCMaxCommandsPerSecond, burst),
			rpc.WithMetrics(m),
			rpc.WithLogger(slog.Default()),
		),
	}
}

// Serve answers commands on lis until ctx ends. When METRICS_PORT is set
// the Prometheus endpoint is served there as well.
func (b *Backend) Serve(ctx context.Context, lis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.server.Serve(lis); err != nil {
			return fmt.Errorf("rpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), b.cfg.ShutdownTimeout)
		defer cancel()
		b.server.GracefulStop(stopCtx)
		return nil
	})

	if b.cfg.MetricsPort != "" {
		g.Go(func() error {
			mlis, err := Listen(b.cfg.MetricsPort)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("GET /metrics", b.metrics.Handler())
			srv := &http.Server{Handler: mux, ReadHeaderTimeout: b.cfg.ServerReadTimeout}
			return serveHTTP(ctx, srv, mlis, b.cfg.ShutdownTimeout)
		})
	}

	return g.Wait()
}
