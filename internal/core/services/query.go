package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
	"github.com/docask/docask-cli/internal/core/ports/driving"
	"github.com/docask/docask-cli/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// Fallback prompts used when no PromptStore is configured.
const (
	defaultSystemPrompt = `You are a helpful assistant that answers questions based on the provided documents.
When answering:
1. Use information from the retrieved documents when available
2. Be specific and cite sources when possible
3. If the answer isn't in the documents, say so clearly
4. Provide concise but complete answers
5. Use proper formatting for readability`

	defaultSearchPrompt = `Based on the provided documents, please answer the following question:

Question: %s

Please provide a detailed answer based on the information found in the documents.
If you cannot find relevant information, please state that clearly.`

	defaultQAPrompt = `Answer the following question using only the information provided in the documents.
If the information is not available in the documents, clearly state that.

Question: %s

Provide a clear, accurate answer with specific references to the source material when possible.`

	defaultSummarizePrompt = `Please provide a comprehensive summary of the following documents:
- Include key topics and main points
- Organize information logically
- Highlight important details
- Keep the summary concise but informative`
)

// QueryService orchestrates grounded generation: it reads the store
// registry, bounds the document set, resolves handles through the
// cache, submits the generation request, and turns the raw result into
// a structured SearchResponse.
//
// Query methods never return an error: a failure produces a response
// whose Err is set and whose Answer describes the problem, so batch
// callers and the CLI always get a structured result.
type QueryService struct {
	registry    driving.RegistryService
	cache       *HandleCache
	backend     driven.GenerativeBackend
	promptStore driven.PromptStore

	modelMu sync.RWMutex
	model   string
}

// NewQueryService creates a query orchestrator. The promptStore is
// optional; embedded default prompts are used when it is nil.
func NewQueryService(
	registry driving.RegistryService,
	cache *HandleCache,
	backend driven.GenerativeBackend,
	promptStore driven.PromptStore,
	model string,
) *QueryService {
	return &QueryService{
		registry:    registry,
		cache:       cache,
		backend:     backend,
		promptStore: promptStore,
		model:       model,
	}
}

// Model returns the active generation model name.
func (s *QueryService) Model() string {
	s.modelMu.RLock()
	defer s.modelMu.RUnlock()
	return s.model
}

// SetModel switches the generation model after validating the backend
// knows it. On validation failure the active model is left unchanged.
func (s *QueryService) SetModel(ctx context.Context, name string) error {
	if s.backend == nil {
		return domain.ErrBackendUnavailable
	}
	if _, err := s.backend.GetModel(ctx, name); err != nil {
		return fmt.Errorf("switch to model %q: %w", name, err)
	}

	s.modelMu.Lock()
	s.model = name
	s.modelMu.Unlock()

	logger.Info("Switched to model: %s", name)
	return nil
}

// ClearCache drops all cached remote file handles.
func (s *QueryService) ClearCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// Run answers a query grounded on one store's documents.
func (s *QueryService) Run(ctx context.Context, query, storeName string, opts domain.QueryOptions) *domain.SearchResponse {
	logger.Section("Query Execution")
	logger.Debug("Query: %q, store: %q", query, storeName)

	docs := s.registry.ListDocuments(ctx, storeName)
	if len(docs) == 0 {
		return &domain.SearchResponse{
			Answer:    fmt.Sprintf("No documents found in store '%s'. Please upload some documents first.", storeName),
			Citations: []domain.Citation{},
			ModelUsed: s.Model(),
			Query:     query,
		}
	}

	return s.generate(ctx, query, docs, opts)
}

// RunMultiStore answers a query grounded on the concatenated documents
// of several stores. Identical handles appearing in more than one store
// are not deduplicated.
func (s *QueryService) RunMultiStore(ctx context.Context, query string, storeNames []string, opts domain.QueryOptions) *domain.SearchResponse {
	logger.Section("Multi-Store Query")
	logger.Debug("Query: %q, stores: %v", query, storeNames)

	var docs []domain.DocumentRecord
	for _, name := range storeNames {
		docs = append(docs, s.registry.ListDocuments(ctx, name)...)
	}

	if len(docs) == 0 {
		return &domain.SearchResponse{
			Answer:    fmt.Sprintf("No documents found in stores: %s", strings.Join(storeNames, ", ")),
			Citations: []domain.Citation{},
			ModelUsed: s.Model(),
			Query:     query,
		}
	}

	return s.generate(ctx, query, docs, opts)
}

// Ask answers a direct question with a tight budget and deterministic
// generation. extraContext, when non-empty, is prepended to the prompt.
func (s *QueryService) Ask(ctx context.Context, question, storeName, extraContext string, maxFiles int) *domain.SearchResponse {
	if maxFiles <= 0 {
		maxFiles = domain.AskMaxFiles
	}

	prompt := fmt.Sprintf(s.loadPrompt(driven.PromptQA, defaultQAPrompt), question)
	if extraContext != "" {
		prompt = fmt.Sprintf("Additional context: %s\n\n%s", extraContext, prompt)
	}

	resp := s.Run(ctx, prompt, storeName, domain.QueryOptions{
		Temperature: 0,
		MaxTokens:   domain.AskMaxTokens,
		MaxFiles:    &maxFiles,
	})
	resp.Query = question
	return resp
}

// Summarize produces a summary of a store's documents, optionally
// focused on a topic. Uses a wider file budget and a slightly higher
// temperature than Run.
func (s *QueryService) Summarize(ctx context.Context, storeName, focusTopic string, maxFiles int) *domain.SearchResponse {
	if maxFiles <= 0 {
		maxFiles = domain.SummarizeMaxFiles
	}

	prompt := s.loadPrompt(driven.PromptSummarize, defaultSummarizePrompt)
	if focusTopic != "" {
		prompt = fmt.Sprintf("%s\n\nFocus particularly on information related to: %s", prompt, focusTopic)
	}

	return s.Run(ctx, prompt, storeName, domain.QueryOptions{
		Temperature: domain.SummarizeTemperature,
		MaxTokens:   domain.SummarizeMaxTokens,
		MaxFiles:    &maxFiles,
	})
}

// BatchRun executes queries sequentially in submission order, pacing
// submissions with the given delay to respect backend rate limits.
// A single query's failure produces an error-flavoured response for
// that query and does not abort the batch.
func (s *QueryService) BatchRun(ctx context.Context, queries []string, storeName string, delay time.Duration) []*domain.SearchResponse {
	logger.Section("Batch Execution")
	logger.Debug("%d queries against store %q, delay %s", len(queries), storeName, delay)

	var limiter *rate.Limiter
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	results := make([]*domain.SearchResponse, 0, len(queries))
	for i, query := range queries {
		logger.Info("Processing query %d/%d: %.50s", i+1, len(queries), query)

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				results = append(results, s.errorResponse(query, fmt.Errorf("batch interrupted: %w", err)))
				continue
			}
		}

		results = append(results, s.Run(ctx, query, storeName, domain.QueryOptions{
			Temperature: domain.DefaultTemperature,
		}))
	}

	logger.Info("Completed batch of %d queries", len(queries))
	return results
}

// generate runs the selection, resolution, generation and extraction
// pipeline for an already-gathered document list.
func (s *QueryService) generate(ctx context.Context, query string, docs []domain.DocumentRecord, opts domain.QueryOptions) *domain.SearchResponse {
	if s.backend == nil {
		return s.errorResponse(query, domain.ErrBackendUnavailable)
	}

	if opts.MaxTokens <= 0 {
		opts.MaxTokens = domain.DefaultMaxTokens
	}
	if opts.MaxFiles == nil {
		maxFiles := domain.DefaultMaxFiles
		opts.MaxFiles = &maxFiles
	}

	selected := SelectBySize(docs, opts.MaxFiles)
	logger.Debug("Selected %d of %d documents", len(selected), len(docs))

	// A resolve failure skips that document, not the query.
	files := make([]driven.FileHandle, 0, len(selected))
	for _, rec := range selected {
		handle, err := s.cache.Resolve(ctx, rec.HandleID)
		if err != nil {
			logger.Warn("Could not access document %q: %v (skipping)", rec.DisplayName, err)
			continue
		}
		files = append(files, *handle)
	}

	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = s.loadPrompt(driven.PromptSystem, defaultSystemPrompt)
	}
	content := fmt.Sprintf(s.loadPrompt(driven.PromptSearch, defaultSearchPrompt), query)

	logger.Info("Generating with %d documents", len(files))

	result, err := s.backend.Generate(ctx, driven.GenerateRequest{
		Model:           s.Model(),
		SystemPrompt:    systemPrompt,
		Content:         content,
		Files:           files,
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxTokens,
	})
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return s.errorResponse(query, err)
	}

	citations := ExtractCitations(result.Grounding)
	logger.Debug("Extracted %d citations", len(citations))

	return &domain.SearchResponse{
		Answer:           result.Text,
		Citations:        citations,
		ModelUsed:        s.Model(),
		Query:            query,
		GroundingSummary: GroundingSummary(result.Grounding),
	}
}

// errorResponse wraps a failure in a structured response so callers
// never see a raw error from the query path.
func (s *QueryService) errorResponse(query string, err error) *domain.SearchResponse {
	return &domain.SearchResponse{
		Answer:    fmt.Sprintf("Error processing query: %v", err),
		Citations: []domain.Citation{},
		ModelUsed: s.Model(),
		Query:     query,
		Err:       err,
	}
}

// loadPrompt loads a prompt template, falling back to the embedded
// default when no store is configured or the load fails.
func (s *QueryService) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}
