package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"flexmon-go/internal/config"
)

const leaseKey = "flexmon:engine:lease"

// releaseScript deletes the lease only if this instance still holds it.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// extendScript refreshes the TTL only if this instance still holds the lease.
var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	return 0
`)

// RedisLease implements Locker using a Redis key with a TTL. Each instance
// identifies itself with a random holder ID so a lease can only be extended
// or released by its owner.
type RedisLease struct {
	client *redis.Client
	holder string
	ttl    time.Duration
}

// NewRedisLease creates a Redis-backed lease and verifies connectivity.
func NewRedisLease(cfg *config.RedisConfig, ttl time.Duration) (*RedisLease, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisLease{
		client: client,
		holder: uuid.New().String(),
		ttl:    ttl,
	}, nil
}

// Acquire takes the lease if it is free, or extends it if this instance
// already holds it. Returns false when another instance holds the lease.
func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, leaseKey, l.holder, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}
	if ok {
		return true, nil
	}

	extended, err := extendScript.Run(ctx, l.client, []string{leaseKey}, l.holder, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to extend lease: %w", err)
	}

	return extended == 1, nil
}

// Release gives up the lease if this instance holds it.
func (l *RedisLease) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, l.client, []string{leaseKey}, l.holder).Int(); err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (l *RedisLease) Close() error {
	return l.client.Close()
}
