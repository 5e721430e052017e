package driven

import (
	"context"

	"github.com/docask/docask-cli/internal/core/domain"
)

// RegistryStore persists the full store registry snapshot.
// The registry service loads once at startup and saves after every
// mutation; implementations only need whole-snapshot semantics.
type RegistryStore interface {
	// Load reads the persisted registry, keyed by store name.
	// A missing backing file yields an empty map, not an error.
	Load(ctx context.Context) (map[string]domain.Store, error)

	// Save writes the full registry snapshot.
	Save(ctx context.Context, stores map[string]domain.Store) error

	// Path returns the backing location, for diagnostics.
	Path() string
}
