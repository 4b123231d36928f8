package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by GetBytes when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
