package middlewares

import (
	"context"
	"time"

	"github.com/nmakri/userhub/internal/redisclient"
)

// RedisStore backs the rate limiter with redis so counters are shared
// across replicas and survive restarts.
type RedisStore struct {
	client *redisclient.Client
	prefix string
}

func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return s.client.Incr(ctx, s.prefix+key, window)
}
