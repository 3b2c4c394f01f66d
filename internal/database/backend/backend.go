// Package backend opens the configured storage implementation
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/config"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database/postgres"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database/sqlite"
)

// Open connects to the store named by cfg.Driver and applies its schema
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (database.Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		logger.Info("connecting to postgres")
		repo, err := postgres.Open(ctx, cfg.URL, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverSQLite:
		logger.Info("opening sqlite database", "path", cfg.SQLitePath)
		store, err := sqlite.Open(ctx, sqlite.Config{
			Path:     cfg.SQLitePath,
			PoolSize: cfg.PoolSize,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
