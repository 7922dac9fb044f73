package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and wires a backend. Redis and DB are only read by
// their respective backends.
type Options struct {
	Backend string
	Dir     string
	Fs      afero.Fs
	Redis   *redis.Client
	DB      *sqlx.DB
}

// Open builds the configured store and checks once that it can persist.
// When the medium is unavailable it logs a warning and returns a
// MemoryStore instead of failing; only an unknown backend is an error.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	var (
		store Store
		err   error
	)

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		fsys := opts.Fs
		if fsys == nil {
			fsys = afero.NewOsFs()
		}
		store, err = NewFileStore(fsys, opts.Dir)
	case BackendRedis:
		if opts.Redis == nil {
			err = fmt.Errorf("redis client not configured")
			break
		}
		store, err = NewRedisStore(ctx, opts.Redis)
	case BackendPostgres:
		if opts.DB == nil {
			err = fmt.Errorf("database not configured")
			break
		}
		store, err = NewPostgresStore(ctx, opts.DB)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}

	if err != nil {
		logger.Warn("Persistent storage unavailable, falling back to memory",
			zap.String("backend", opts.Backend),
			zap.Error(err),
		)
		return NewMemoryStore(), nil
	}

	logger.Info("Storage backend ready", zap.String("backend", opts.Backend))
	return store, nil
}
