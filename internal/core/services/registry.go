package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
	"github.com/docask/docask-cli/internal/core/ports/driving"
	"github.com/docask/docask-cli/internal/logger"
)

// Ensure RegistryService implements the interface.
var _ driving.RegistryService = (*RegistryService)(nil)

// RegistryService is the sole source of truth for which documents belong
// to which store. The full registry is held in memory and written through
// the RegistryStore after every mutation.
//
// Persistence failures are logged, not returned: the in-memory mutation
// stands even when durability was not achieved.
type RegistryService struct {
	mu      sync.RWMutex
	store   driven.RegistryStore
	backend driven.GenerativeBackend
	stores  map[string]domain.Store
}

// NewRegistryService creates a registry service and loads the persisted
// snapshot. A load failure is logged and the registry starts empty; the
// on-disk state may be lost if a fresh store later collides with an old
// name.
func NewRegistryService(store driven.RegistryStore, backend driven.GenerativeBackend) *RegistryService {
	s := &RegistryService{
		store:   store,
		backend: backend,
		stores:  make(map[string]domain.Store),
	}

	if store == nil {
		return s
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		logger.Warn("Could not load store registry from %s: %v (starting empty)", store.Path(), err)
		return s
	}
	if loaded != nil {
		s.stores = loaded
	}
	logger.Debug("Registry loaded: %d stores from %s", len(s.stores), store.Path())
	return s
}

// CreateStore creates an empty store. Idempotent: if the name already
// exists the existing store is returned without mutation.
func (s *RegistryService) CreateStore(ctx context.Context, name string) (*domain.Store, error) {
	if name == "" {
		return nil, fmt.Errorf("create store: %w: empty name", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.stores[name]; ok {
		logger.Debug("Store %q already exists (%d documents)", name, len(existing.Documents))
		return &existing, nil
	}

	created := domain.Store{
		ID:        uuid.NewString(),
		Name:      name,
		Documents: []domain.DocumentRecord{},
	}
	s.stores[name] = created
	s.persist(ctx)

	logger.Info("Created store %q (%s)", name, created.ID)
	return &created, nil
}

// ListStores returns a listing row per store, sorted by name.
func (s *RegistryService) ListStores(_ context.Context) []domain.StoreInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.StoreInfo, 0, len(s.stores))
	for name := range s.stores {
		st := s.stores[name]
		infos = append(infos, domain.StoreInfo{
			Name:          st.Name,
			ID:            st.ID,
			DocumentCount: len(st.Documents),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// DeleteStore removes the store and all its records. Each record's
// remote handle is released best-effort: a release failure is logged and
// swallowed, the registry mutation completes regardless. Returns false
// if the store did not exist.
func (s *RegistryService) DeleteStore(ctx context.Context, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[name]
	if !ok {
		logger.Debug("Store %q not found, nothing to delete", name)
		return false
	}

	if s.backend != nil {
		for _, rec := range st.Documents {
			if err := s.backend.DeleteFile(ctx, rec.HandleID); err != nil {
				logger.Warn("Could not release handle %s for %q: %v", rec.HandleID, rec.DisplayName, err)
			}
		}
	}

	delete(s.stores, name)
	s.persist(ctx)

	logger.Info("Deleted store %q (%d documents)", name, len(st.Documents))
	return true
}

// AddDocument appends a record to the store, creating the store
// implicitly if absent, and persists.
func (s *RegistryService) AddDocument(ctx context.Context, storeName string, rec domain.DocumentRecord) error {
	if storeName == "" {
		return fmt.Errorf("add document: %w: empty store name", domain.ErrInvalidInput)
	}
	if rec.HandleID == "" {
		return fmt.Errorf("add document: %w: empty handle id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[storeName]
	if !ok {
		st = domain.Store{
			ID:   uuid.NewString(),
			Name: storeName,
		}
	}
	st.Documents = append(st.Documents, rec)
	s.stores[storeName] = st
	s.persist(ctx)

	logger.Debug("Added document %q (%s) to store %q", rec.DisplayName, rec.HandleID, storeName)
	return nil
}

// ListDocuments returns the store's records in upload order. An unknown
// store yields an empty slice, not an error.
func (s *RegistryService) ListDocuments(_ context.Context, storeName string) []domain.DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[storeName]
	if !ok {
		return []domain.DocumentRecord{}
	}

	// Copy so callers cannot reorder registry state.
	docs := make([]domain.DocumentRecord, len(st.Documents))
	copy(docs, st.Documents)
	return docs
}

// ResolveStoreName looks a store up by exact display name. No fuzzy
// matching.
func (s *RegistryService) ResolveStoreName(_ context.Context, displayName string) (*domain.Store, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[displayName]
	if !ok {
		return nil, false
	}
	return &st, true
}

// persist writes the snapshot through the registry store.
// Caller must hold the write lock. Failures are logged, not returned.
func (s *RegistryService) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.stores); err != nil {
		logger.Warn("Could not persist registry to %s: %v", s.store.Path(), err)
	}
}
