package datasource

import (
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/releasetower/pkg/errors"
)

// Registry holds the installed datasources keyed by id.
// It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]Descriptor)}
}

// Register installs d, replacing any datasource with the same id.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "datasource id is required")
	}
	if d.Source == nil {
		return errors.New(errors.ErrCodeInvalidInput, "datasource %s: releases capability is required", d.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[d.ID] = d
	return nil
}

// MustRegister is like Register but panics on an invalid descriptor.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Unregister removes the datasource with the given id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.descriptors, id)
}

// Get returns the datasource registered under id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[id]
	return d, ok
}

// List returns the registered ids in sorted order.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.descriptors))
}

// Descriptors returns a snapshot of every registered datasource.
func (r *Registry) Descriptors() map[string]Descriptor {
	if r == nil {
		return map[string]Descriptor{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.descriptors)
}
