// Package file provides a JSON-file-backed registry store.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
)

// RegistryStore persists the store registry as a single JSON document.
type RegistryStore struct {
	path string
}

var _ driven.RegistryStore = (*RegistryStore)(nil)

// NewRegistryStore creates a registry store at path. If path is empty,
// defaults to ~/.docask/stores.json.
func NewRegistryStore(path string) (*RegistryStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".docask", "stores.json")
	}
	return &RegistryStore{path: path}, nil
}

// Load reads the registry snapshot. A missing file yields an empty
// registry; a file that exists but cannot be parsed is an error.
func (s *RegistryStore) Load(_ context.Context) (map[string]domain.Store, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]domain.Store{}, nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	var stores map[string]domain.Store
	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	if stores == nil {
		stores = map[string]domain.Store{}
	}
	return stores, nil
}

// Save writes the full snapshot, creating parent directories as needed.
func (s *RegistryStore) Save(_ context.Context, stores map[string]domain.Store) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	data, err := json.MarshalIndent(stores, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

// Path returns the registry file path.
func (s *RegistryStore) Path() string {
	return s.path
}
