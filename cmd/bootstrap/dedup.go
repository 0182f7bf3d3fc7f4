package bootstrap

import (
	"context"
	"log/slog"

	"admin-alerts/internal/infra/dedup"
	"admin-alerts/internal/pkg/config"
	"admin-alerts/internal/usecase/commands"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var DedupModule = fx.Module("dedup",
	fx.Provide(
		NewDedupGate,
	),
)

// NewDedupGate picks the Redis-backed gate when an address is configured and
// falls back to the in-process gate otherwise.
func NewDedupGate(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (commands.DedupGate, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("dedup gate: in-process (no redis configured)")
		return dedup.NewMemoryGate(cfg.Pipeline.DedupWindow), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	logger.Info("dedup gate: redis", "addr", cfg.Redis.Addr)
	return dedup.NewRedisGate(client, cfg.Pipeline.DedupWindow), nil
}
