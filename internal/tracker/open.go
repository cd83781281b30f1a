package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/store"
)

// OpenStore opens the backend named in cfg. When a durable backend cannot
// be opened it falls back to memory and reports degraded, so the UI stays
// usable without persistence.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (s *store.Store, degraded bool, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := store.Options{
		FailureThreshold: uint32(cfg.BreakerFailures),
		OpenTimeout:      cfg.BreakerTimeout,
		Logger:           logger,
	}

	var backend store.Backend
	switch cfg.StoreDriver {
	case config.DriverMemory:
		backend = store.NewMemoryBackend()
	case config.DriverRedis:
		backend, err = store.OpenRedis(ctx, cfg.RedisURL)
	case config.DriverSQLite:
		backend, err = store.OpenSQLite(cfg.DBPath)
	default:
		return nil, false, fmt.Errorf("open store: unknown driver %q", cfg.StoreDriver)
	}

	if err != nil {
		logger.Error("durable store unavailable, keeping data in memory only",
			"driver", cfg.StoreDriver,
			"error", err,
		)
		return store.Wrap(store.NewMemoryBackend(), opts), true, nil
	}

	logger.Debug("store opened", "driver", cfg.StoreDriver)
	return store.Wrap(backend, opts), false, nil
}
