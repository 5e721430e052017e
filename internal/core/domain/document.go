package domain

// MetadataEntry is one key/value pair attached to a document.
// Exactly one of StringValue or NumericValue is set.
// Entries keep the order in which they were created.
type MetadataEntry struct {
	// Key is the metadata field name.
	Key string `json:"key"`

	// StringValue holds a textual value.
	StringValue string `json:"string_value,omitempty"`

	// NumericValue holds a numeric value.
	NumericValue *float64 `json:"numeric_value,omitempty"`
}

// DocumentRecord is one uploaded document tracked inside a store.
// The actual file content lives with the remote backend; the record
// only carries the handle and display metadata.
type DocumentRecord struct {
	// HandleID is the opaque backend identifier for the uploaded file.
	// Unique within a store.
	HandleID string `json:"handle_id"`

	// DisplayName is the human-readable name shown in listings and citations.
	DisplayName string `json:"display_name"`

	// SizeBytes is the original file size on disk.
	SizeBytes uint64 `json:"size_bytes"`

	// MimeType is the detected content type.
	MimeType string `json:"mime_type"`

	// Metadata contains ordered key/value pairs supplied at upload time.
	Metadata []MetadataEntry `json:"metadata,omitempty"`
}

// Store is a named, ordered collection of document records.
// Document order is upload order and is never silently reordered.
type Store struct {
	// ID is assigned once at creation and survives renames of nothing:
	// the registry key is the name, the ID distinguishes a recreated
	// store from its deleted predecessor.
	ID string `json:"id"`

	// Name is the unique registry key.
	Name string `json:"name"`

	// Documents in upload order.
	Documents []DocumentRecord `json:"documents"`
}

// StoreInfo is a listing row for a store.
type StoreInfo struct {
	Name          string `json:"name"`
	ID            string `json:"id"`
	DocumentCount int    `json:"document_count"`
}
