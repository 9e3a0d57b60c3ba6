// Package cache provides byte-level cache backends and the JSON adapter the
// release engine stores lookup results through.
//
// Backends implement [Cache]:
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [MemoryCache]: in-process store for the HTTP server and tests
//   - [RedisCache]: shared store for multi-instance deployments
//   - [MongoCache]: document store with a TTL index
//   - [NullCache]: disables caching
//
// [Packages] layers namespaced, JSON-encoded values on top of any backend.
// Key construction is delegated to a [Keyer] so deployments can scope keys
// with [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-level key/value store with per-entry expiry.
// A ttl of zero or less stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
