package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease implements Lease with SET NX PX, so every instance sharing the
// Redis database sees the same holder.
type RedisLease struct {
	client *redis.Client
}

// NewRedisLease connects to Redis and verifies the connection
func NewRedisLease(cfg config.RedisConfig) (*RedisLease, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisLease{client: client}, nil
}

// NewRedisLeaseWithClient creates a lease over an existing client
func NewRedisLeaseWithClient(client *redis.Client) *RedisLease {
	return &RedisLease{client: client}
}

// TryAcquire sets key to owner if it is absent
func (l *RedisLease) TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %s: %w", key, err)
	}
	return ok, nil
}

// Release deletes key if it still belongs to owner
func (l *RedisLease) Release(ctx context.Context, key, owner string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key}, owner).Err(); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisLease) Close() error {
	return l.client.Close()
}

var _ Lease = (*RedisLease)(nil)
