package driven

import (
	"context"

	"github.com/docask/docask-cli/internal/core/domain"
)

// FileState reports the processing state of an uploaded file.
type FileState string

// File states reported by the backend.
const (
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
)

// FileHandle is the backend's representation of an uploaded file.
// It is opaque to the core except for the fields needed to track,
// poll, and reference the file in generation requests.
type FileHandle struct {
	// ID is the backend's identifier, e.g. "files/abc123".
	ID string

	// DisplayName is the name given at upload.
	DisplayName string

	// MimeType is the content type the backend recorded.
	MimeType string

	// SizeBytes is the stored size.
	SizeBytes uint64

	// State is the processing state.
	State FileState

	// URI references the file in generation requests.
	URI string
}

// ModelInfo describes a generation model known to the backend.
type ModelInfo struct {
	Name             string
	DisplayName      string
	Description      string
	InputTokenLimit  int
	OutputTokenLimit int
	SupportedMethods []string
}

// GenerateRequest is one generation call.
type GenerateRequest struct {
	// Model is the model name, e.g. "gemini-2.5-flash".
	Model string

	// SystemPrompt is the system instruction.
	SystemPrompt string

	// Content is the formatted user prompt.
	Content string

	// Files are the resolved document handles sent as context.
	Files []FileHandle

	// Temperature controls randomness.
	Temperature float64

	// MaxOutputTokens bounds the answer length.
	MaxOutputTokens int
}

// GenerateResult is the backend's answer to a generation call.
type GenerateResult struct {
	// Text is the generated answer.
	Text string

	// Grounding is the citation evidence payload; nil when the backend
	// returned none.
	Grounding *domain.GroundingMetadata
}

// GenerativeBackend is the remote service that stores uploaded files and
// answers generation requests grounded on them.
//
// Implementations translate transport errors into ordinary Go errors;
// the orchestrator decides what is fatal for a query.
type GenerativeBackend interface {
	// Generate submits a prompt plus file handles and returns the answer.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// UploadFile uploads a local file and returns its handle.
	// The returned handle may still be in FileStateProcessing.
	UploadFile(ctx context.Context, path, displayName string) (*FileHandle, error)

	// GetFile resolves a handle ID to a fresh handle.
	GetFile(ctx context.Context, id string) (*FileHandle, error)

	// DeleteFile removes an uploaded file from the backend.
	DeleteFile(ctx context.Context, id string) error

	// GetModel returns metadata for a model, or an error wrapping
	// domain.ErrUnknownModel when the backend does not know it.
	GetModel(ctx context.Context, name string) (*ModelInfo, error)

	// ListModels returns the models the backend offers.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Ping validates the backend is reachable and the key is accepted.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
