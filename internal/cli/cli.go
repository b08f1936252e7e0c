// Package cli defines the microshop command line: one subcommand per
// process role plus schema and version helpers.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jaivikTh/nest-microsrv-kit/internal/app"
	"github.com/jaivikTh/nest-microsrv-kit/internal/config"
	"github.com/jaivikTh/nest-microsrv-kit/internal/logger"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const configKey = "config"

func App() *cli.App {
	return &cli.App{
		Name:    "microshop",
		Usage:   "API gateway with user and order services",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "optional YAML config file; environment variables override it",
				EnvVars: []string{"MICROSHOP_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			c.App.Metadata[configKey] = cfg
			return nil
		},
		Commands: []*cli.Command{
			gatewayCommand(),
			userServiceCommand(),
			orderServiceCommand(),
			allCommand(),
			migrateCommand(),
			versionCommand(),
		},
	}
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata[configKey].(*config.Config)
}

// setup installs the process logger tagged with service and returns a
// context cancelled on SIGINT or SIGTERM.
func setup(c *cli.Context, service string) (*config.Config, context.Context, context.CancelFunc) {
	cfg := configFrom(c)
	log := logger.Setup(os.Stdout, cfg.LogFormat, cfg.LogLevel).With("service", service)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	return cfg, ctx, stop
}

func gatewayCommand() *cli.Command {
	return &cli.Command{
		Name:  "gateway",
		Usage: "serve the public HTTP API",
		Action: func(c *cli.Context) error {
			cfg, ctx, stop := setup(c, app.GatewayServiceName)
			defer stop()

			stores, err := app.OpenStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			gw, err := app.NewGateway(cfg, stores.Users)
			if err != nil {
				return err
			}

			lis, err := app.Listen(cfg.GatewayPort)
			if err != nil {
				return err
			}
			return gw.Serve(ctx, lis)
		},
	}
}

func userServiceCommand() *cli.Command {
	return &cli.Command{
		Name:  "user-service",
		Usage: "serve user commands over RPC",
		Action: func(c *cli.Context) error {
			cfg, ctx, stop := setup(c, app.UserServiceName)
			defer stop()

			stores, err := app.OpenStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			lis, err := app.Listen(cfg.UserServicePort)
			if err != nil {
				return err
			}
			return app.NewUserBackend(cfg, stores.Users).Serve(ctx, lis)
		},
	}
}

func orderServiceCommand() *cli.Command {
	return &cli.Command{
		Name:  "order-service",
		Usage: "serve order commands over RPC",
		Action: func(c *cli.Context) error {
			cfg, ctx, stop := setup(c, app.OrderServiceName)
			defer stop()

			stores, err := app.OpenStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			lis, err := app.Listen(cfg.OrderServicePort)
			if err != nil {
				return err
			}
			return app.NewOrderBackend(cfg, stores.Orders).Serve(ctx, lis)
		},
	}
}

func allCommand() *cli.Command {
	return &cli.Command{
		Name:  "all",
		Usage: "run the gateway and both services in one process over one store",
		Action: func(c *cli.Context) error {
			cfg, ctx, stop := setup(c, "microshop")
			defer stop()

			stores, err := app.OpenStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close()

			backendCfg := *cfg
			backendCfg.MetricsPort = ""

			userLis, err := app.Listen(cfg.UserServicePort)
			if err != nil {
				return err
			}
			orderLis, err := app.Listen(cfg.OrderServicePort)
			if err != nil {
				_ = userLis.Close()
				return err
			}
			gatewayLis, err := app.Listen(cfg.GatewayPort)
			if err != nil {
				_ = userLis.Close()
				_ = orderLis.Close()
				return err
			}

			gw, err := app.NewGateway(cfg, stores.Users)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return app.NewUserBackend(&backendCfg, stores.Users).Serve(ctx, userLis) })
			g.Go(func() error { return app.NewOrderBackend(&backendCfg, stores.Orders).Serve(ctx, orderLis) })
			g.Go(func() error { return gw.Serve(ctx, gatewayLis) })
			return g.Wait()
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database migrations for STORE_DRIVER and exit",
		Action: func(c *cli.Context) error {
			cfg, ctx, stop := setup(c, "migrate")
			defer stop()

			if err := app.Migrate(ctx, cfg); err != nil {
				return err
			}
			slog.Info("migrations complete", "driver", cfg.StoreDriver)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print build information",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintf(c.App.Writer, "microshop %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
			return err
		},
	}
}
