// Package persistence selects the storage backend and builds the
// repositories on top of it.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/BryServices/auradhom-v2/internal/config"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/local"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/postgres"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// ErrNotDurable is returned by RequireDurable for the process-private local store.
var ErrNotDurable = errors.New("storage backend is local to this process")

// RequireDurable rejects the local store for processes that share data with
// another process. Every local store rewrites its whole file, so two of them
// on one path overwrite each other.
func RequireDurable(gw gateway.Gateway) error {
	if gw.Name() == local.Name {
		return ErrNotDurable
	}
	return nil
}

// NewGateway chọn backend đúng một lần khi khởi động, không probe lại.
// Khi rơi về local store thì log đúng một warning cho operator.
func NewGateway(ctx context.Context, cfg config.StorageConfig, db config.PostgresConfig, log logger.Logger) (gateway.Gateway, error) {
	if cfg.Backend == config.BackendPostgres {
		reason := ""
		if !db.Configured() {
			reason = "database not configured"
		} else {
			probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
			pool, err := postgres.NewPool(probeCtx, db)
			cancel()
			if err == nil {
				if err := postgres.Migrate(pool); err != nil {
					pool.Close()
					return nil, err
				}
				log.Info("storage backend selected", logger.String("backend", postgres.Name))
				return postgres.NewGateway(pool), nil
			}
			reason = err.Error()
		}
		log.Warn("durable store unavailable, falling back to local store",
			logger.String("reason", reason),
			logger.String("path", cfg.LocalPath),
		)
	}

	store, err := local.New(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if cfg.Backend == config.BackendLocal {
		log.Info("storage backend selected", logger.String("backend", local.Name))
	}
	return store, nil
}
