package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/releasetower/pkg/observability"
)

// Packages stores JSON-encoded values under a namespace and key on top of
// a byte-level backend.
type Packages struct {
	backend Cache
	keyer   Keyer
}

// NewPackages wraps backend. A nil keyer uses [NewDefaultKeyer].
func NewPackages(backend Cache, keyer Keyer) *Packages {
	if backend == nil {
		backend = NewNullCache()
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Packages{backend: backend, keyer: keyer}
}

// Get decodes the value stored under namespace and key into v.
// Undecodable entries are deleted and reported as a miss.
func (p *Packages) Get(ctx context.Context, namespace, key string, v any) (bool, error) {
	k := p.keyer.PackageKey(namespace, key)
	data, ok, err := p.backend.Get(ctx, k)
	if err != nil {
		return false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, namespace)
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = p.backend.Delete(ctx, k)
		observability.Cache().OnCacheMiss(ctx, namespace)
		return false, nil
	}
	observability.Cache().OnCacheHit(ctx, namespace)
	return true, nil
}

// Set encodes v and stores it under namespace and key for ttl.
func (p *Packages) Set(ctx context.Context, namespace, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.backend.Set(ctx, p.keyer.PackageKey(namespace, key), data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, namespace, len(data))
	return nil
}

// Delete removes the value stored under namespace and key.
func (p *Packages) Delete(ctx context.Context, namespace, key string) error {
	return p.backend.Delete(ctx, p.keyer.PackageKey(namespace, key))
}
