// Package backendstore provides storage backend implementations and the
// registry that routing and migration components resolve backends from.
//
// A backend is any object store that can hold routed content (S3, GCS,
// etc.), reduced to a four-method contract: Add, Get, List, Delete.
// Concrete implementations are injected at the composition root; nothing
// in the engine constructs its own clients.
package backendstore

import (
	"context"
	"sync"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
)

// BackendStore is the narrow contract every storage backend satisfies.
type BackendStore interface {
	// Add stores content and returns its id within the backend.
	Add(ctx context.Context, content []byte, metadata map[string]string) (string, error)

	// Get retrieves content by id.
	Get(ctx context.Context, id string) ([]byte, error)

	// List returns descriptors for stored content matching the filter.
	List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, error)

	// Delete removes content by id. Returns false if the id did not exist.
	Delete(ctx context.Context, id string) (bool, error)
}

// Registry holds the backends known to this process, keyed by name.
// Thread-safe; registration happens at startup, lookups at request time.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]BackendStore
	names  []string
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]BackendStore),
		names:  make([]string, 0),
	}
}

// Register adds a named backend. Duplicate names are rejected.
func (r *Registry) Register(name string, store BackendStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; exists {
		return errors.Validation("backend %q already registered", name)
	}

	r.stores[name] = store
	r.names = append(r.names, name)
	return nil
}

// Backend returns the store for a specific backend name.
func (r *Registry) Backend(name string) (BackendStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, exists := r.stores[name]
	if !exists {
		return nil, errors.NotFound("backend", name)
	}
	return store, nil
}

// Names returns all registered backend names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}
