package driving

import (
	"context"

	"github.com/docask/docask-cli/internal/core/domain"
)

// RegistryService manages the mapping from store names to document records.
type RegistryService interface {
	// CreateStore creates an empty store. Idempotent: an existing store
	// is returned unchanged.
	CreateStore(ctx context.Context, name string) (*domain.Store, error)

	// ListStores returns name and document count for every store.
	ListStores(ctx context.Context) []domain.StoreInfo

	// DeleteStore removes the store and its records, releasing remote
	// handles best-effort. Returns false if the store did not exist.
	DeleteStore(ctx context.Context, name string) bool

	// AddDocument appends a record, creating the store if absent.
	AddDocument(ctx context.Context, storeName string, rec domain.DocumentRecord) error

	// ListDocuments returns the store's records in upload order.
	// Unknown stores yield an empty slice, not an error.
	ListDocuments(ctx context.Context, storeName string) []domain.DocumentRecord

	// ResolveStoreName looks a store up by exact display name.
	ResolveStoreName(ctx context.Context, displayName string) (*domain.Store, bool)
}
