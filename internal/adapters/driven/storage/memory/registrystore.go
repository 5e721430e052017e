// Package memory provides an in-memory registry store for tests and
// ephemeral sessions.
package memory

import (
	"context"
	"sync"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
)

// RegistryStore holds the registry snapshot in memory. Nothing survives
// the process.
type RegistryStore struct {
	mu     sync.RWMutex
	stores map[string]domain.Store
}

var _ driven.RegistryStore = (*RegistryStore)(nil)

// NewRegistryStore creates an empty in-memory registry store.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{stores: make(map[string]domain.Store)}
}

// Load returns a copy of the current snapshot.
func (s *RegistryStore) Load(_ context.Context) (map[string]domain.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Store, len(s.stores))
	for k, v := range s.stores {
		out[k] = v
	}
	return out, nil
}

// Save replaces the snapshot with a copy of stores.
func (s *RegistryStore) Save(_ context.Context, stores map[string]domain.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stores = make(map[string]domain.Store, len(stores))
	for k, v := range stores {
		s.stores[k] = v
	}
	return nil
}

// Path identifies the store in log output.
func (s *RegistryStore) Path() string {
	return "memory"
}
