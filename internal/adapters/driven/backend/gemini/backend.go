// Package gemini provides a generative backend adapter using the
// Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.GenerativeBackend = (*Backend)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout = 120 * time.Second

	// DefaultRequestsPerMinute matches the free-tier generateContent quota.
	DefaultRequestsPerMinute = 10
)

// Config holds configuration for the Gemini backend.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public Gemini endpoint).
	// Can be changed for proxies or tests.
	BaseURL string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerMinute throttles generation calls. Zero means
	// DefaultRequestsPerMinute; negative disables throttling.
	RequestsPerMinute int
}

// Backend talks to the Gemini REST API: file upload and management
// plus grounded content generation.
type Backend struct {
	client    *http.Client
	baseURL   string
	uploadURL string
	apiKey    string
	limiter   *rate.Limiter
}

// mimeOverrides covers extensions the platform mime table may miss.
var mimeOverrides = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// generateContentRequest is the :generateContent request format.
type generateContentRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	FileURI  string `json:"file_uri"`
	MimeType string `json:"mime_type,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// generateContentResponse is the :generateContent response format.
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata *groundingMetadata `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

// groundingMetadata mirrors the API's citation evidence payload.
// Chunk fields vary between response versions, so everything is
// optional and mapped onto the domain type as-is.
type groundingMetadata struct {
	GroundingChunks []struct {
		RetrievedContext *struct {
			Title      string   `json:"title"`
			URI        string   `json:"uri"`
			Text       string   `json:"text"`
			PageNumber *int     `json:"pageNumber"`
			Score      *float64 `json:"score"`
		} `json:"retrievedContext"`
		FileName       string   `json:"fileName"`
		ChunkText      string   `json:"chunkText"`
		PageNumber     *int     `json:"pageNumber"`
		RelevanceScore *float64 `json:"relevanceScore"`
	} `json:"groundingChunks"`
	GroundingSupports []struct {
		Confidence []float64 `json:"confidenceScores"`
	} `json:"groundingSupports"`
}

// fileResource is the API's file object. SizeBytes arrives as a
// decimal string.
type fileResource struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	MimeType    string `json:"mimeType"`
	SizeBytes   string `json:"sizeBytes"`
	State       string `json:"state"`
	URI         string `json:"uri"`
}

type fileEnvelope struct {
	File fileResource `json:"file"`
}

// modelResource is the API's model object.
type modelResource struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description"`
	InputTokenLimit            int      `json:"inputTokenLimit"`
	OutputTokenLimit           int      `json:"outputTokenLimit"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

type listModelsResponse struct {
	Models        []modelResource `json:"models"`
	NextPageToken string          `json:"nextPageToken"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewBackend creates a Gemini backend.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	rpm := cfg.RequestsPerMinute
	if rpm == 0 {
		rpm = DefaultRequestsPerMinute
	}
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}

	return &Backend{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.BaseURL,
		uploadURL: uploadBaseURL(cfg.BaseURL),
		apiKey:    cfg.APIKey,
		limiter:   limiter,
	}, nil
}

// uploadBaseURL derives the media-upload endpoint from the API base.
// The API serves uploads under /upload/v1beta rather than /v1beta.
func uploadBaseURL(baseURL string) string {
	if i := strings.LastIndex(baseURL, "/v1"); i >= 0 {
		return baseURL[:i] + "/upload" + baseURL[i:]
	}
	return baseURL + "/upload"
}

// Generate submits a prompt plus file references and returns the
// answer with any grounding payload.
func (b *Backend) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.GenerateResult, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("gemini: rate limit wait: %w", err)
		}
	}

	parts := make([]part, 0, len(req.Files)+1)
	for _, f := range req.Files {
		parts = append(parts, part{FileData: &fileData{
			FileURI:  f.URI,
			MimeType: f.MimeType,
		}})
	}
	parts = append(parts, part{Text: req.Content})

	body := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	var resp generateContentResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", b.baseURL, req.Model)
	if err := b.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("gemini error: %s", resp.Error.Message)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: no candidates returned")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, p := range candidate.Content.Parts {
		text.WriteString(p.Text)
	}

	return &driven.GenerateResult{
		Text:      text.String(),
		Grounding: toDomainGrounding(candidate.GroundingMetadata),
	}, nil
}

// UploadFile uploads a local file using the raw media-upload protocol.
// The returned handle may still be processing.
func (b *Backend) UploadFile(ctx context.Context, path, displayName string) (*driven.FileHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gemini: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("gemini: stat %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.uploadURL+"/files", f)
	if err != nil {
		return nil, fmt.Errorf("gemini: create upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("x-goog-api-key", b.apiKey)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-File-Name", displayName)
	req.Header.Set("Content-Type", mimeTypeFor(path))

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: upload: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: upload failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var envelope fileEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("gemini: decode upload response: %w", err)
	}

	return toFileHandle(envelope.File), nil
}

// GetFile resolves a handle ID (e.g. "files/abc123") to a fresh handle.
func (b *Backend) GetFile(ctx context.Context, id string) (*driven.FileHandle, error) {
	var resource fileResource
	if err := b.doJSON(ctx, http.MethodGet, b.baseURL+"/"+id, nil, &resource); err != nil {
		return nil, err
	}
	return toFileHandle(resource), nil
}

// DeleteFile removes an uploaded file.
func (b *Backend) DeleteFile(ctx context.Context, id string) error {
	return b.doJSON(ctx, http.MethodDelete, b.baseURL+"/"+id, nil, nil)
}

// GetModel returns metadata for a model. An unknown model yields an
// error wrapping domain.ErrUnknownModel.
func (b *Backend) GetModel(ctx context.Context, name string) (*driven.ModelInfo, error) {
	var resource modelResource
	err := b.doJSON(ctx, http.MethodGet, b.baseURL+"/models/"+name, nil, &resource)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModel, name)
		}
		return nil, err
	}
	info := toModelInfo(resource)
	return &info, nil
}

// ListModels returns every model the API offers, following pagination.
func (b *Backend) ListModels(ctx context.Context) ([]driven.ModelInfo, error) {
	var models []driven.ModelInfo
	pageToken := ""

	for {
		url := b.baseURL + "/models"
		if pageToken != "" {
			url += "?pageToken=" + pageToken
		}

		var page listModelsResponse
		if err := b.doJSON(ctx, http.MethodGet, url, nil, &page); err != nil {
			return nil, err
		}
		for _, m := range page.Models {
			models = append(models, toModelInfo(m))
		}

		if page.NextPageToken == "" {
			return models, nil
		}
		pageToken = page.NextPageToken
	}
}

// Ping validates the API is reachable and the key is accepted without
// running inference.
func (b *Backend) Ping(ctx context.Context) error {
	var page listModelsResponse
	if err := b.doJSON(ctx, http.MethodGet, b.baseURL+"/models?pageSize=1", nil, &page); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (b *Backend) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// doJSON performs one API request, encoding body and decoding the
// response into out when non-nil.
func (b *Backend) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gemini: marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", b.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != nil {
			return &requestError{status: resp.StatusCode, message: envelope.Error.Message}
		}
		return &requestError{status: resp.StatusCode, message: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

// requestError is a non-2xx API response.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string {
	return fmt.Sprintf("gemini error (status %d): %s", e.status, e.message)
}

func isNotFound(err error) bool {
	reqErr, ok := err.(*requestError)
	return ok && reqErr.status == http.StatusNotFound
}

// mimeTypeFor resolves the content type for a local file path.
func mimeTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mimeOverrides[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// toFileHandle converts an API file resource to the port type.
func toFileHandle(resource fileResource) *driven.FileHandle {
	size, _ := strconv.ParseUint(resource.SizeBytes, 10, 64)
	return &driven.FileHandle{
		ID:          resource.Name,
		DisplayName: resource.DisplayName,
		MimeType:    resource.MimeType,
		SizeBytes:   size,
		State:       driven.FileState(resource.State),
		URI:         resource.URI,
	}
}

// toModelInfo converts an API model resource to the port type.
func toModelInfo(resource modelResource) driven.ModelInfo {
	return driven.ModelInfo{
		Name:             strings.TrimPrefix(resource.Name, "models/"),
		DisplayName:      resource.DisplayName,
		Description:      resource.Description,
		InputTokenLimit:  resource.InputTokenLimit,
		OutputTokenLimit: resource.OutputTokenLimit,
		SupportedMethods: resource.SupportedGenerationMethods,
	}
}

// toDomainGrounding maps the wire grounding payload to the domain type.
func toDomainGrounding(meta *groundingMetadata) *domain.GroundingMetadata {
	if meta == nil {
		return nil
	}

	out := &domain.GroundingMetadata{
		Chunks: make([]domain.GroundingChunk, 0, len(meta.GroundingChunks)),
	}

	for _, wire := range meta.GroundingChunks {
		chunk := domain.GroundingChunk{
			FileName:       wire.FileName,
			ChunkText:      wire.ChunkText,
			PageNumber:     wire.PageNumber,
			RelevanceScore: wire.RelevanceScore,
		}
		if rc := wire.RetrievedContext; rc != nil {
			chunk.Source = &domain.GroundingSource{
				FileName:   rc.Title,
				PageNumber: rc.PageNumber,
			}
			if chunk.ChunkText == "" {
				chunk.ChunkText = rc.Text
			}
			if chunk.RelevanceScore == nil {
				chunk.RelevanceScore = rc.Score
			}
		}
		out.Chunks = append(out.Chunks, chunk)
	}

	// Average support confidence, when reported, becomes the overall
	// support score.
	var sum float64
	var n int
	for _, support := range meta.GroundingSupports {
		for _, c := range support.Confidence {
			sum += c
			n++
		}
	}
	if n > 0 {
		avg := sum / float64(n)
		out.SupportScore = &avg
	}

	return out
}
