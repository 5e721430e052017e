package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
	"github.com/docask/docask-cli/internal/core/ports/driving"
	"github.com/docask/docask-cli/internal/logger"
)

// Ensure UploadService implements the interface.
var _ driving.UploadService = (*UploadService)(nil)

// DefaultMaxFileSize caps uploads at 100 MB.
const DefaultMaxFileSize = 100 * 1024 * 1024

// defaultPollInterval paces the processing-state poll after upload.
const defaultPollInterval = 2 * time.Second

// defaultPollAttempts bounds how long we wait for a file to activate.
const defaultPollAttempts = 30

// supportedExtensions is the upload format whitelist, lower-case.
var supportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".docx":     true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
}

// UploadService validates local files, pushes them to the backend,
// waits for processing to finish, and records them in the registry.
type UploadService struct {
	registry driving.RegistryService
	backend  driven.GenerativeBackend
	clock    driven.Clock

	maxFileSize  uint64
	pollInterval time.Duration
	pollAttempts int
}

// NewUploadService creates an upload service. A zero maxFileSize means
// DefaultMaxFileSize.
func NewUploadService(registry driving.RegistryService, backend driven.GenerativeBackend, maxFileSize uint64) *UploadService {
	if maxFileSize == 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &UploadService{
		registry:     registry,
		backend:      backend,
		clock:        driven.SystemClock{},
		maxFileSize:  maxFileSize,
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
	}
}

// Validate checks a path without touching the backend: the file must
// exist, carry a supported extension, fit under the size limit, and be
// readable.
func (s *UploadService) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("validate %s: %w", path, domain.ErrNotFound)
		}
		return fmt.Errorf("validate %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("validate %s: %w: is a directory", path, domain.ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return fmt.Errorf("validate %s: %w: %s", path, domain.ErrUnsupportedFormat, ext)
	}

	if uint64(info.Size()) > s.maxFileSize {
		return fmt.Errorf("validate %s: %w: %d bytes (limit %d)",
			path, domain.ErrFileTooLarge, info.Size(), s.maxFileSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("validate %s: not readable: %w", path, err)
	}
	return f.Close()
}

// Upload validates the file, uploads it, waits until the backend marks
// it active, and appends the record to the store. The store is created
// implicitly when absent.
func (s *UploadService) Upload(ctx context.Context, path, storeName string, opts driving.UploadOptions) (*domain.DocumentRecord, error) {
	if s.backend == nil {
		return nil, domain.ErrBackendUnavailable
	}
	if err := s.Validate(path); err != nil {
		return nil, err
	}

	displayName := opts.DisplayName
	if displayName == "" {
		displayName = filepath.Base(path)
	}

	metadata, err := buildMetadata(opts)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}

	logger.Section("Upload")
	logger.Info("Uploading %s as %q", path, displayName)

	handle, err := s.backend.UploadFile(ctx, path, displayName)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w: %v", path, domain.ErrUploadFailed, err)
	}

	handle, err = s.waitForActive(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}

	rec := domain.DocumentRecord{
		HandleID:    handle.ID,
		DisplayName: displayName,
		SizeBytes:   handle.SizeBytes,
		MimeType:    handle.MimeType,
		Metadata:    metadata,
	}
	if rec.SizeBytes == 0 {
		if info, statErr := os.Stat(path); statErr == nil {
			rec.SizeBytes = uint64(info.Size())
		}
	}

	if err := s.registry.AddDocument(ctx, storeName, rec); err != nil {
		return nil, fmt.Errorf("upload %s: record document: %w", path, err)
	}

	logger.Info("Uploaded %q to store %q (%s)", displayName, storeName, handle.ID)
	return &rec, nil
}

// UploadDirectory uploads every supported file under dir, one result
// per attempted file. Unsupported files are skipped silently; a file
// that fails validation or upload contributes a result with Err set.
func (s *UploadService) UploadDirectory(ctx context.Context, dir, storeName string, recursive bool, opts driving.UploadOptions) ([]driving.UploadResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("upload directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("upload directory %s: %w: not a directory", dir, domain.ErrInvalidInput)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload directory %s: %w", dir, err)
	}
	sort.Strings(paths)

	logger.Info("Found %d supported files in %s", len(paths), dir)

	results := make([]driving.UploadResult, 0, len(paths))
	for _, path := range paths {
		// Per-file DisplayName would collide across files; drop it.
		fileOpts := opts
		fileOpts.DisplayName = ""

		rec, uploadErr := s.Upload(ctx, path, storeName, fileOpts)
		results = append(results, driving.UploadResult{
			Path:   path,
			Record: rec,
			Err:    uploadErr,
		})
		if uploadErr != nil {
			logger.Warn("Skipped %s: %v", path, uploadErr)
		}
	}

	return results, nil
}

// waitForActive polls the backend until the handle leaves the
// processing state. A failed state or poll exhaustion is an error.
func (s *UploadService) waitForActive(ctx context.Context, handle *driven.FileHandle) (*driven.FileHandle, error) {
	for attempt := 0; handle.State == driven.FileStateProcessing; attempt++ {
		if attempt >= s.pollAttempts {
			return nil, fmt.Errorf("file %s still processing after %d checks", handle.ID, s.pollAttempts)
		}

		logger.Debug("File %s processing, waiting %s", handle.ID, s.pollInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}

		refreshed, err := s.backend.GetFile(ctx, handle.ID)
		if err != nil {
			return nil, fmt.Errorf("poll file %s: %w", handle.ID, err)
		}
		handle = refreshed
	}

	if handle.State == driven.FileStateFailed {
		return nil, fmt.Errorf("file %s: %w: backend processing failed", handle.ID, domain.ErrUploadFailed)
	}
	return handle, nil
}

// buildMetadata converts upload options into record metadata entries.
func buildMetadata(opts driving.UploadOptions) ([]domain.MetadataEntry, error) {
	var entries []domain.MetadataEntry

	if opts.DocumentType != "" {
		entries = append(entries, domain.MetadataEntry{Key: "document_type", StringValue: opts.DocumentType})
	}
	if opts.Category != "" {
		entries = append(entries, domain.MetadataEntry{Key: "category", StringValue: opts.Category})
	}
	if len(opts.Tags) > 0 {
		entries = append(entries, domain.MetadataEntry{Key: "tags", StringValue: strings.Join(opts.Tags, ",")})
	}

	keys := make([]string, 0, len(opts.CustomFields))
	for k := range opts.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := opts.CustomFields[k].(type) {
		case string:
			entries = append(entries, domain.MetadataEntry{Key: k, StringValue: v})
		case float64:
			val := v
			entries = append(entries, domain.MetadataEntry{Key: k, NumericValue: &val})
		case int:
			val := float64(v)
			entries = append(entries, domain.MetadataEntry{Key: k, NumericValue: &val})
		default:
			return nil, fmt.Errorf("%w: metadata field %q must be string or number", domain.ErrInvalidInput, k)
		}
	}

	return entries, nil
}
