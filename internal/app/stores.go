package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaivikTh/nest-microsrv-kit/internal/config"
	"github.com/jaivikTh/nest-microsrv-kit/internal/database"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
)

// Stores is the persistence a process needs, opened for cfg.StoreDriver.
type Stores struct {
	Users  repository.UserStore
	Orders repository.OrderStore

	closers []func()
}

// MemoryStores wraps an in-process database. Processes only share data when
// they share db.
func MemoryStores(db *repository.MemoryDB) *Stores {
	return &Stores{Users: db.Users(), Orders: db.Orders()}
}

func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseDSN(), cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return &Stores{
			Users:   repository.NewUserRepository(db.Pool),
			Orders:  repository.NewOrderRepository(db.Pool),
			closers: []func(){db.Close},
		}, nil

	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := database.MigrateSQLite(ctx, db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return &Stores{
			Users:   repository.NewSQLiteUserRepository(db),
			Orders:  repository.NewSQLiteOrderRepository(db),
			closers: []func(){func() { _ = db.Close() }},
		}, nil

	case config.StoreDriverMemory:
		slog.Warn("using the in-memory store, data is lost on exit and not shared between processes")
		return MemoryStores(repository.NewMemoryDB()), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (s *Stores) Close() {
	for _, closeFn := range s.closers {
		closeFn()
	}
}

// Migrate applies the schema for cfg.StoreDriver and exits.
func Migrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseDSN(), cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		return db.Migrate(ctx)

	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		return database.MigrateSQLite(ctx, db)

	default:
		return fmt.Errorf("store driver %q has no schema to migrate", cfg.StoreDriver)
	}
}
