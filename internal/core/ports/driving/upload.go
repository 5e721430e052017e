package driving

import (
	"context"

	"github.com/docask/docask-cli/internal/core/domain"
)

// UploadOptions carries optional upload metadata.
type UploadOptions struct {
	// DisplayName overrides the file name shown in listings.
	DisplayName string

	// DocumentType classifies the document, e.g. "manual" or "report".
	DocumentType string

	// Category is a free-form category label.
	Category string

	// Tags are joined into a single metadata entry.
	Tags []string

	// CustomFields become additional metadata entries. String values
	// are stored as strings, numeric values as numbers; other types
	// are rejected.
	CustomFields map[string]any
}

// UploadResult reports one file's outcome during a directory upload.
type UploadResult struct {
	Path   string
	Record *domain.DocumentRecord
	Err    error
}

// UploadService validates and uploads documents into stores.
type UploadService interface {
	// Validate rejects files outside the format whitelist or above the
	// size limit without touching the backend.
	Validate(path string) error

	// Upload validates, uploads to the backend, waits for the file to
	// become active, and records it in the store.
	Upload(ctx context.Context, path, storeName string, opts UploadOptions) (*domain.DocumentRecord, error)

	// UploadDirectory uploads every supported file under dir.
	// Individual failures are reported per file, not as one error.
	UploadDirectory(ctx context.Context, dir, storeName string, recursive bool, opts UploadOptions) ([]UploadResult, error)
}
