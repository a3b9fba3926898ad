package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.pilab.hu/hospital/storage"
)

// Cmdable is the subset of the redis client the store uses.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MSet(ctx context.Context, values ...interface{}) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store implements storage.KV on Redis. Several dashboard clients can share one server as long
// as each uses its own prefix.
type Store struct {
	client Cmdable
	closer func() error
	prefix string
}

var _ storage.KV = (*Store)(nil)

// NewStore creates a new [Store] on an existing client.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{
		client: client,
		closer: client.Close,
		prefix: prefix,
	}
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr string, db int, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	return NewStore(client, prefix), nil
}

// redisKey returns the Redis key for a storage key.
func (r *Store) redisKey(key string) string {
	return fmt.Sprintf("%s:storage:%s", r.prefix, key)
}

func (r *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}

	return v, nil
}

func (r *Store) Set(ctx context.Context, key, value string) error {
	return r.SetMany(ctx, map[string]string{key: value})
}

// SetMany writes all values with one MSET, which Redis applies atomically.
func (r *Store) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, r.redisKey(k), v)
	}

	if err := r.client.MSet(ctx, args...).Err(); err != nil {
		return fmt.Errorf("failed to set values in Redis: %w", err)
	}

	return nil
}

func (r *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = r.redisKey(k)
	}

	if err := r.client.Del(ctx, redisKeys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys from Redis: %w", err)
	}

	return nil
}

func (r *Store) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer()
}
