package cli

import (
	"context"
	"time"

	"github.com/docask/docask-cli/internal/adapters/driven/storage/memory"
	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driving"
	"github.com/docask/docask-cli/internal/core/services"
)

// mockQueryService returns canned responses for every query method.
type mockQueryService struct {
	model     string
	lastStore string
	lastQuery string
}

var _ driving.QueryService = (*mockQueryService)(nil)

func (m *mockQueryService) respond(query string) *domain.SearchResponse {
	m.lastQuery = query
	return &domain.SearchResponse{
		Answer: "mock answer",
		Citations: []domain.Citation{
			{FileName: "mock.pdf", ChunkText: "mock passage"},
		},
		ModelUsed: m.model,
		Query:     query,
	}
}

func (m *mockQueryService) Run(_ context.Context, query, storeName string, _ domain.QueryOptions) *domain.SearchResponse {
	m.lastStore = storeName
	return m.respond(query)
}

func (m *mockQueryService) RunMultiStore(_ context.Context, query string, _ []string, _ domain.QueryOptions) *domain.SearchResponse {
	return m.respond(query)
}

func (m *mockQueryService) Ask(_ context.Context, question, storeName, _ string, _ int) *domain.SearchResponse {
	m.lastStore = storeName
	return m.respond(question)
}

func (m *mockQueryService) Summarize(_ context.Context, storeName, _ string, _ int) *domain.SearchResponse {
	m.lastStore = storeName
	return m.respond("summary")
}

func (m *mockQueryService) BatchRun(_ context.Context, queries []string, storeName string, _ time.Duration) []*domain.SearchResponse {
	m.lastStore = storeName
	results := make([]*domain.SearchResponse, 0, len(queries))
	for _, q := range queries {
		results = append(results, m.respond(q))
	}
	return results
}

func (m *mockQueryService) SetModel(_ context.Context, name string) error {
	m.model = name
	return nil
}

func (m *mockQueryService) Model() string { return m.model }

func (m *mockQueryService) ClearCache() {}

// setupTestServices installs working mock services and returns a
// cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldRegistry := registryService
	oldQuery := queryService
	oldUpload := uploadService
	oldBackend := backendService
	oldDefault := defaultStoreName

	registryService = services.NewRegistryService(memory.NewRegistryStore(), nil)
	queryService = &mockQueryService{model: "gemini-2.5-flash"}
	uploadService = nil
	backendService = nil
	defaultStoreName = "test-store"

	return func() {
		registryService = oldRegistry
		queryService = oldQuery
		uploadService = oldUpload
		backendService = oldBackend
		defaultStoreName = oldDefault
	}
}
