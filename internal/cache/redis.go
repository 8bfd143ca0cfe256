package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// remoteBackend is the primary cache tier. Implementations must treat
// "key absent" as (nil, false, nil), reserving errors for backend trouble.
type remoteBackend interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte, tag string, ttl time.Duration) error
	invalidate(ctx context.Context, tags ...string) error
	ping(ctx context.Context) error
	close() error
}

// redisBackend implements remoteBackend on a Redis server. Every call is
// bounded by its own deadline so a slow backend cannot stall a search.
type redisBackend struct {
	client  *redis.Client
	timeout time.Duration
}

func newRedisBackend(addr, password string, db int, timeout time.Duration) *redisBackend {
	return &redisBackend{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
		timeout: timeout,
	}
}

func (b *redisBackend) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

func (b *redisBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := b.withDeadline(ctx)
	defer cancel()

	value, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// set stores the value and registers its key in the tag set used for
// repository invalidation. The tag set outlives the value slightly so a
// member list never disappears before its entries do.
func (b *redisBackend) set(ctx context.Context, key string, value []byte, tag string, ttl time.Duration) error {
	ctx, cancel := b.withDeadline(ctx)
	defer cancel()

	pipe := b.client.TxPipeline()
	pipe.Set(ctx, key, value, ttl)
	pipe.SAdd(ctx, tag, key)
	pipe.Expire(ctx, tag, ttl+time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

func (b *redisBackend) invalidate(ctx context.Context, tags ...string) error {
	ctx, cancel := b.withDeadline(ctx)
	defer cancel()

	for _, tag := range tags {
		keys, err := b.client.SMembers(ctx, tag).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		keys = append(keys, tag)
		if err := b.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (b *redisBackend) ping(ctx context.Context) error {
	ctx, cancel := b.withDeadline(ctx)
	defer cancel()
	return b.client.Ping(ctx).Err()
}

func (b *redisBackend) close() error {
	return b.client.Close()
}
