package store

import (
	"context"
	"fmt"

	"github.com/steveyegge/luckywheel/internal/config"
)

// Open builds the backend selected in the store config.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Dir, FileOptions{LockTimeout: cfg.LockTimeout})
	case config.BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			URL:         cfg.RedisURL,
			Addr:        cfg.RedisAddr,
			Namespace:   cfg.RedisNamespace,
			LockTimeout: cfg.LockTimeout,
		})
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
