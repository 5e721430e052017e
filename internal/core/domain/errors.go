package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreNotFound indicates the named store does not exist.
	ErrStoreNotFound = errors.New("store not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a file extension outside the
	// upload whitelist.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge indicates a file above the upload size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnknownModel indicates a model name the backend does not know.
	ErrUnknownModel = errors.New("unknown model")

	// ErrBackendUnavailable indicates the generative backend is not
	// configured. Queries and uploads are disabled without it.
	ErrBackendUnavailable = errors.New("generative backend unavailable")

	// ErrUploadFailed indicates the backend did not activate an
	// uploaded file.
	ErrUploadFailed = errors.New("upload failed")
)
