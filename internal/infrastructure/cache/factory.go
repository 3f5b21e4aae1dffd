package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/config"
)

// NewIdempotencyStore returns a Redis store when Redis is enabled and
// reachable, otherwise a MemoryStore.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) integration.IdempotencyStore {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory idempotency store")
		return NewMemoryStore()
	}

	store, err := NewRedisStore(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
			"replicas may sync the same event twice",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.Error(err),
		)
		return NewMemoryStore()
	}

	logger.Info("Using Redis idempotency store", zap.String("host", cfg.Host), zap.Int("db", cfg.DB))
	return store
}
