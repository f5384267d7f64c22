// Package cache stores serialized node records outside the process.
//
// A [Cache] is a byte-oriented key/value store with per-entry TTLs. Four
// backends are provided:
//
//   - [FileCache] for the CLI, one JSON file per key under a directory
//   - [RedisCache] for shared deployments
//   - [MongoCache] for document-database deployments
//   - [NullCache] to disable caching
//
// Keys are built by a [Keyer] so that callers never format them by hand.
// [Observed] wraps any backend and reports hits, misses and writes to the
// hooks registered in pkg/observability.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/scatter/pkg/observability"
)

// Default TTLs.
const (
	// TTLRecord applies to individual node records pushed for loaders.
	TTLRecord = 7 * 24 * time.Hour

	// TTLDump applies to whole dumps stored under a name.
	TTLDump = 30 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Observed wraps c so that every Get and Set notifies observability.Cache().
func Observed(c Cache) Cache {
	if c == nil {
		return nil
	}
	if _, ok := c.(*observed); ok {
		return c
	}
	return &observed{Cache: c}
}

type observed struct {
	Cache
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.Cache.Get(ctx, key)
	if err != nil {
		return data, ok, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, key)
	} else {
		observability.Cache().OnCacheMiss(ctx, key)
	}
	return data, ok, nil
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := o.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
	return nil
}
