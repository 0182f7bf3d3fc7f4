package dedup

import (
	"context"
	"time"

	"admin-alerts/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dedup:"

// RedisGate shares the suppression window across pipeline instances. Keys
// expire via PX so no sweeper is needed.
type RedisGate struct {
	client *redis.Client
	window time.Duration
}

func NewRedisGate(client *redis.Client, window time.Duration) *RedisGate {
	return &RedisGate{client: client, window: window}
}

func (g *RedisGate) ShouldSuppress(ctx context.Context, key string, _ time.Time) (bool, error) {
	n, err := g.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, errs.Wrap(err, "dedup existence check failed")
	}
	return n > 0, nil
}

func (g *RedisGate) Record(ctx context.Context, key string, now time.Time) error {
	err := g.client.Set(ctx, keyPrefix+key, now.UTC().Format(time.RFC3339Nano), g.window).Err()
	if err != nil {
		return errs.Wrap(err, "dedup record failed")
	}
	return nil
}
