package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
)

// Cache stores interactive search results for a short time.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get decodes into value, which must be a *string or an
	// encoding.BinaryUnmarshaler.
	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	Close() error
}

const DefaultTTL = 5 * time.Minute
