// Package app opens the configured backing services and assembles the
// catalog on top of them.
package app

import (
	"context"
	"fmt"

	"motico-catalog/internal/catalog"
	"motico-catalog/internal/config"
	"motico-catalog/internal/database"
	"motico-catalog/internal/lock"
	"motico-catalog/internal/server"
	"motico-catalog/internal/storage"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the opened resources. Redis and DB are nil when the
// configuration does not need them.
type App struct {
	Catalog *catalog.Catalog
	Store   storage.Store
	Redis   *redis.Client
	DB      *database.Service
}

// Open connects whatever the storage and lock backends require, runs
// migrations for postgres and builds the catalog. An unreachable backend
// degrades to the in-memory store rather than failing startup.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}

	if cfg.Storage.Backend == storage.BackendRedis || cfg.Lock.Backend == "redis" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var db *sqlx.DB
	if cfg.Storage.Backend == storage.BackendPostgres {
		dbService, err := database.New(cfg.Database)
		if err != nil {
			a.Close(logger)
			return nil, err
		}
		a.DB = dbService
		db = dbService.DB()

		logger.Info("Database health check", zap.Any("health", dbService.Health(ctx)))
		if err := database.RunMigrations(ctx, db.DB, logger); err != nil {
			logger.Warn("Migrations failed, storage will fall back to memory", zap.Error(err))
			db = nil
		}
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend: cfg.Storage.Backend,
		Dir:     cfg.Storage.Dir,
		Redis:   a.Redis,
		DB:      db,
	}, logger)
	if err != nil {
		a.Close(logger)
		return nil, err
	}
	a.Store = store

	locker, err := newLocker(cfg, a.Redis, logger)
	if err != nil {
		a.Close(logger)
		return nil, err
	}

	a.Catalog = catalog.New(store, locker, logger, catalog.Options{
		KeyPrefix:       cfg.Storage.KeyPrefix,
		Seed:            cfg.Storage.Seed,
		DefaultMinStock: cfg.Catalog.DefaultMinStock,
	})
	return a, nil
}

func newLocker(cfg *config.Config, client *redis.Client, logger *zap.Logger) (lock.Locker, error) {
	switch cfg.Lock.Backend {
	case "", "local":
		return lock.NewLocalLocker(), nil
	case "redis":
		return lock.NewRedisLocker(client, cfg.Storage.KeyPrefix, logger.Named("lock")), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}
}

// ServerDeps hands the opened resources to the HTTP server, which closes
// them on shutdown.
func (a *App) ServerDeps() server.Deps {
	return server.Deps{
		Catalog: a.Catalog,
		Store:   a.Store,
		Redis:   a.Redis,
		DB:      a.DB,
	}
}

// Close releases everything Open acquired
func (a *App) Close(logger *zap.Logger) {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
}
