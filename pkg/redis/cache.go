package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

// Cache provides JSON value caching on top of the shared client
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache with a key prefix (e.g. "fundpilot")
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get reads a JSON value into dest. Returns ErrCacheMiss when absent
// or when Redis is disabled.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.client.Enabled() {
		return ErrCacheMiss
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode failed: %w", err)
	}

	return nil
}

// Set writes a JSON value with a TTL. No-op when Redis is disabled.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}

	if err := c.client.Redis().Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// Delete removes a key. No-op when Redis is disabled.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

func (c *Cache) key(key string) string {
	return c.prefix + ":" + key
}
