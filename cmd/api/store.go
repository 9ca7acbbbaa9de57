package main

import (
	"context"
	"fmt"

	"cineflix/proj/internal/config"
	"cineflix/proj/internal/storage"
	"cineflix/proj/internal/storage/memory"
	"cineflix/proj/internal/storage/mongo"
	"cineflix/proj/internal/storage/postgres"
	"cineflix/proj/internal/storage/sqlite"
)

// openStore connects the record store backend selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.Store) (storage.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.Path)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.Dsn, cfg.MaxConns, cfg.MaxConnIdleTime)
	case config.DriverMongo:
		return mongo.New(ctx, cfg.Dsn, cfg.Database, cfg.Collection)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func storeTarget(cfg config.Store) string {
	switch cfg.Driver {
	case config.DriverSQLite:
		return cfg.Path
	case config.DriverPostgres, config.DriverMongo:
		return cfg.Database
	}
	return cfg.Driver
}
