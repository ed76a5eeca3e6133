package redis

import (
	"context"
	"encoding"
	"time"

	"github.com/redis/go-redis/v9"

	"jobfinder-engine/internal/cache"
)

type Cache struct {
	client *redis.Client
	prefix string
}

// New connects to a redis:// URL and pings it.
func New(ctx context.Context, rawURL string) (*Cache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Cache{client: client, prefix: "jobfinder:"}, nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = cache.DefaultTTL
	}
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *Cache) Get(ctx context.Context, key string, value interface{}) error {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return cache.ErrNotFound
	}
	if err != nil {
		return err
	}
	return decode(val, value)
}

func decode(val []byte, value interface{}) error {
	switch v := value.(type) {
	case *string:
		*v = string(val)
	case encoding.BinaryUnmarshaler:
		return v.UnmarshalBinary(val)
	default:
		return cache.ErrInvalidValue
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
