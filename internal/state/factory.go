package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/db"
	"github.com/ETAnderson/catalogfeed/internal/migrate"
)

type FactoryConfig struct {
	Backend string
	MySQL   db.Config

	// RunMigrations applies the embedded schema before the store is returned.
	RunMigrations bool
}

type FactoryResult struct {
	Store Store
	DB    *sql.DB // only set for mysql
}

var ErrUnknownBackend = errors.New("unknown STATE_BACKEND (use memory or mysql)")

func NewStore(ctx context.Context, cfg FactoryConfig) (FactoryResult, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "memory"
	}

	switch backend {
	case "memory":
		return FactoryResult{Store: NewMemoryStore()}, nil

	case "mysql":
		if strings.TrimSpace(cfg.MySQL.DSN) == "" {
			return FactoryResult{}, errors.New("DB_DSN is required when STATE_BACKEND=mysql")
		}

		sqlDB, err := db.Open(cfg.MySQL)
		if err != nil {
			return FactoryResult{}, fmt.Errorf("open mysql: %w", err)
		}

		if err := db.Ping(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return FactoryResult{}, fmt.Errorf("ping mysql: %w", err)
		}

		if cfg.RunMigrations {
			if err := migrate.Apply(ctx, sqlDB); err != nil {
				_ = sqlDB.Close()
				return FactoryResult{}, fmt.Errorf("apply migrations: %w", err)
			}
		}

		return FactoryResult{
			Store: NewMySQLStore(sqlDB),
			DB:    sqlDB,
		}, nil

	default:
		return FactoryResult{}, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
