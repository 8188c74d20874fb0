// Package cache defines the port interface for byte-value caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching. Get reports a miss with
// found=false and a nil error; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
