package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores report figures as plain strings under "<ns>:cache:".
type Cache struct {
	client redis.Cmdable
	keys   keyspace
}

// NewCache returns a cache writing under namespace, or DefaultNamespace
// when namespace is empty.
func NewCache(client redis.Cmdable, namespace string) *Cache {
	return &Cache{client: client, keys: newKeyspace(namespace, "cache")}
}

// Get returns the cached value. A missing or expired key yields nil, nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.keys.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return data, nil
}

// Set stores value for ttl. A non-positive ttl is refused so report figures
// never live forever.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("cache ttl must be positive")
	}
	return c.client.Set(ctx, c.keys.key(key), value, ttl).Err()
}

// Delete drops a cached value.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.keys.key(key)).Err()
}
