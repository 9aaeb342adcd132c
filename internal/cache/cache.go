// Package cache defines the store contract for cached nearby-search
// responses.
package cache

import (
	"context"
	"time"
)

type Interface interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
