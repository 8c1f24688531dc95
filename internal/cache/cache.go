// Package cache provides the time-boxed memoization store backing the query
// executor. Entries expire a fixed duration after insertion; there is no
// invalidation on underlying data change.
package cache

import (
	"context"
	"time"
)

// Store is a key -> (value, expiry) cache. Get reports a miss for absent or
// expired keys. Callers treat a Get/Set error as a miss: the cache is an
// optimization, never a source of truth.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
