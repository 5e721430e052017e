package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
)

// mockBackend is a configurable in-memory GenerativeBackend.
type mockBackend struct {
	mu sync.Mutex

	generateFn func(ctx context.Context, req driven.GenerateRequest) (*driven.GenerateResult, error)
	uploadFn   func(ctx context.Context, path, displayName string) (*driven.FileHandle, error)
	getFileFn  func(ctx context.Context, id string) (*driven.FileHandle, error)
	getModelFn func(ctx context.Context, name string) (*driven.ModelInfo, error)

	generateCalls []driven.GenerateRequest
	getFileCalls  []string
	deletedFiles  []string
	deleteErr     error
}

var _ driven.GenerativeBackend = (*mockBackend)(nil)

func (m *mockBackend) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.GenerateResult, error) {
	m.mu.Lock()
	m.generateCalls = append(m.generateCalls, req)
	m.mu.Unlock()

	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return &driven.GenerateResult{Text: "mock answer"}, nil
}

func (m *mockBackend) UploadFile(ctx context.Context, path, displayName string) (*driven.FileHandle, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, path, displayName)
	}
	return &driven.FileHandle{
		ID:          "files/mock",
		DisplayName: displayName,
		State:       driven.FileStateActive,
	}, nil
}

func (m *mockBackend) GetFile(ctx context.Context, id string) (*driven.FileHandle, error) {
	m.mu.Lock()
	m.getFileCalls = append(m.getFileCalls, id)
	m.mu.Unlock()

	if m.getFileFn != nil {
		return m.getFileFn(ctx, id)
	}
	return &driven.FileHandle{ID: id, State: driven.FileStateActive, URI: "uri://" + id}, nil
}

func (m *mockBackend) DeleteFile(_ context.Context, id string) error {
	m.mu.Lock()
	m.deletedFiles = append(m.deletedFiles, id)
	m.mu.Unlock()
	return m.deleteErr
}

func (m *mockBackend) GetModel(ctx context.Context, name string) (*driven.ModelInfo, error) {
	if m.getModelFn != nil {
		return m.getModelFn(ctx, name)
	}
	return &driven.ModelInfo{Name: name}, nil
}

func (m *mockBackend) ListModels(context.Context) ([]driven.ModelInfo, error) {
	return []driven.ModelInfo{{Name: "gemini-2.5-flash"}}, nil
}

func (m *mockBackend) Ping(context.Context) error { return nil }

func (m *mockBackend) Close() error { return nil }

func (m *mockBackend) getFileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.getFileCalls)
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ driven.Clock = (*fakeClock)(nil)

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockRegistryStore records snapshots in memory.
type mockRegistryStore struct {
	mu      sync.Mutex
	data    map[string]domain.Store
	loadErr error
	saveErr error
	saves   int
}

var _ driven.RegistryStore = (*mockRegistryStore)(nil)

func (s *mockRegistryStore) Load(context.Context) (map[string]domain.Store, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string]domain.Store, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *mockRegistryStore) Save(_ context.Context, stores map[string]domain.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = make(map[string]domain.Store, len(stores))
	for k, v := range stores {
		s.data[k] = v
	}
	return nil
}

func (s *mockRegistryStore) Path() string { return "mock://registry" }

func (s *mockRegistryStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// mockPromptStore serves fixed prompts by name.
type mockPromptStore struct {
	prompts map[string]string
}

var _ driven.PromptStore = (*mockPromptStore)(nil)

func (s *mockPromptStore) Load(name string) (string, error) {
	p, ok := s.prompts[name]
	if !ok {
		return "", errors.New("prompt not found: " + name)
	}
	return p, nil
}
