package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docask/docask-cli/internal/core/domain"
)

func TestRegistryService_CreateStore_Idempotent(t *testing.T) {
	svc := NewRegistryService(&mockRegistryStore{}, nil)

	first, err := svc.CreateStore(context.Background(), "docs")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := svc.CreateStore(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, svc.ListStores(context.Background()), 1)
}

func TestRegistryService_CreateStore_EmptyName(t *testing.T) {
	svc := NewRegistryService(&mockRegistryStore{}, nil)

	_, err := svc.CreateStore(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistryService_ListStores_SortedByName(t *testing.T) {
	svc := NewRegistryService(&mockRegistryStore{}, nil)

	for _, name := range []string{"zebra", "alpha", "middle"} {
		_, err := svc.CreateStore(context.Background(), name)
		require.NoError(t, err)
	}

	infos := svc.ListStores(context.Background())
	require.Len(t, infos, 3)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "middle", infos[1].Name)
	assert.Equal(t, "zebra", infos[2].Name)
}

func TestRegistryService_AddDocument_CreatesStoreImplicitly(t *testing.T) {
	svc := NewRegistryService(&mockRegistryStore{}, nil)

	err := svc.AddDocument(context.Background(), "fresh", domain.DocumentRecord{
		HandleID:    "files/a",
		DisplayName: "a.pdf",
	})
	require.NoError(t, err)

	docs := svc.ListDocuments(context.Background(), "fresh")
	require.Len(t, docs, 1)
	assert.Equal(t, "a.pdf", docs[0].DisplayName)

	st, ok := svc.ResolveStoreName(context.Background(), "fresh")
	require.True(t, ok)
	assert.NotEmpty(t, st.ID)
}

func TestRegistryService_AddDocument_PreservesUploadOrder(t *testing.T) {
	svc := NewRegistryService(&mockRegistryStore{}, nil)

	for _, id := range []string{"files/1", "files/2", "files/3"} {
		err := svc.AddDocument(context.Background(), "docs", domain.DocumentRecord{HandleID: id, DisplayName: id})
		require.NoError(t, err)
	}

	docs := svc.ListDocuments(context.Background(), "docs")
	require.Len(t, docs, 3)
	assert.Equal(t, "files/1", docs[0].HandleID)
	assert.Equal(t, "files/3", docs[2].HandleID)
}

func TestRegistryService_ListDocuments_UnknownStoreEmpty(t *testing.T) {
	svc := NewRegistryService(&mockRegistryStore{}, nil)

	docs := svc.ListDocuments(context.Background(), "nope")
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestRegistryService_DeleteStore_ReleasesHandles(t *testing.T) {
	backend := &mockBackend{}
	svc := NewRegistryService(&mockRegistryStore{}, backend)

	require.NoError(t, svc.AddDocument(context.Background(), "docs", domain.DocumentRecord{HandleID: "files/a"}))
	require.NoError(t, svc.AddDocument(context.Background(), "docs", domain.DocumentRecord{HandleID: "files/b"}))

	deleted := svc.DeleteStore(context.Background(), "docs")
	assert.True(t, deleted)
	assert.ElementsMatch(t, []string{"files/a", "files/b"}, backend.deletedFiles)

	_, ok := svc.ResolveStoreName(context.Background(), "docs")
	assert.False(t, ok)
}

func TestRegistryService_DeleteStore_ReleaseFailureStillDeletes(t *testing.T) {
	backend := &mockBackend{deleteErr: errors.New("backend down")}
	svc := NewRegistryService(&mockRegistryStore{}, backend)

	require.NoError(t, svc.AddDocument(context.Background(), "docs", domain.DocumentRecord{HandleID: "files/a"}))

	assert.True(t, svc.DeleteStore(context.Background(), "docs"))
	_, ok := svc.ResolveStoreName(context.Background(), "docs")
	assert.False(t, ok)
}

func TestRegistryService_DeleteStore_Missing(t *testing.T) {
	svc := NewRegistryService(&mockRegistryStore{}, nil)
	assert.False(t, svc.DeleteStore(context.Background(), "ghost"))
}

func TestRegistryService_PersistsAfterMutations(t *testing.T) {
	store := &mockRegistryStore{}
	svc := NewRegistryService(store, nil)

	_, err := svc.CreateStore(context.Background(), "docs")
	require.NoError(t, err)
	require.NoError(t, svc.AddDocument(context.Background(), "docs", domain.DocumentRecord{HandleID: "files/a"}))
	svc.DeleteStore(context.Background(), "docs")

	assert.Equal(t, 3, store.saveCount())
}

func TestRegistryService_SaveFailureDoesNotAbortMutation(t *testing.T) {
	store := &mockRegistryStore{saveErr: errors.New("disk full")}
	svc := NewRegistryService(store, nil)

	_, err := svc.CreateStore(context.Background(), "docs")
	require.NoError(t, err)

	_, ok := svc.ResolveStoreName(context.Background(), "docs")
	assert.True(t, ok)
}

func TestRegistryService_LoadFailureStartsEmpty(t *testing.T) {
	store := &mockRegistryStore{loadErr: errors.New("corrupt json")}
	svc := NewRegistryService(store, nil)

	assert.Empty(t, svc.ListStores(context.Background()))
}

func TestRegistryService_LoadsExistingSnapshot(t *testing.T) {
	store := &mockRegistryStore{data: map[string]domain.Store{
		"docs": {
			ID:   "store-1",
			Name: "docs",
			Documents: []domain.DocumentRecord{
				{HandleID: "files/a", DisplayName: "a.pdf"},
			},
		},
	}}

	svc := NewRegistryService(store, nil)

	infos := svc.ListStores(context.Background())
	require.Len(t, infos, 1)
	assert.Equal(t, "docs", infos[0].Name)
	assert.Equal(t, 1, infos[0].DocumentCount)
}
