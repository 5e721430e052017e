package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driven"
)

func newTestBackend(t *testing.T, handler http.Handler) *Backend {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend, err := NewBackend(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL + "/v1beta",
		RequestsPerMinute: -1,
	})
	require.NoError(t, err)
	return backend
}

func TestNewBackend_RequiresAPIKey(t *testing.T) {
	_, err := NewBackend(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestUploadBaseURL(t *testing.T) {
	assert.Equal(t,
		"https://generativelanguage.googleapis.com/upload/v1beta",
		uploadBaseURL(DefaultBaseURL))
	assert.Equal(t, "http://host/upload", uploadBaseURL("http://host"))
}

func TestBackend_Generate_Success(t *testing.T) {
	var gotBody generateContentRequest
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "part one "}, {"text": "part two"}},
				},
				"groundingMetadata": map[string]any{
					"groundingChunks": []map[string]any{{
						"retrievedContext": map[string]any{
							"title": "doc.pdf",
							"text":  "cited passage",
							"score": 0.9,
						},
					}},
					"groundingSupports": []map[string]any{{
						"confidenceScores": []float64{0.8, 0.6},
					}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))

	result, err := backend.Generate(context.Background(), driven.GenerateRequest{
		Model:           "gemini-2.5-flash",
		SystemPrompt:    "be helpful",
		Content:         "the question",
		Temperature:     0.1,
		MaxOutputTokens: 2048,
		Files: []driven.FileHandle{
			{URI: "uri://files/a", MimeType: "application/pdf"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", result.Text)

	require.NotNil(t, result.Grounding)
	require.Len(t, result.Grounding.Chunks, 1)
	chunk := result.Grounding.Chunks[0]
	require.NotNil(t, chunk.Source)
	assert.Equal(t, "doc.pdf", chunk.Source.FileName)
	assert.Equal(t, "cited passage", chunk.ChunkText)
	require.NotNil(t, chunk.RelevanceScore)
	assert.InDelta(t, 0.9, *chunk.RelevanceScore, 1e-9)
	require.NotNil(t, result.Grounding.SupportScore)
	assert.InDelta(t, 0.7, *result.Grounding.SupportScore, 1e-9)

	require.NotNil(t, gotBody.SystemInstruction)
	assert.Equal(t, "be helpful", gotBody.SystemInstruction.Parts[0].Text)
	require.Len(t, gotBody.Contents, 1)
	parts := gotBody.Contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].FileData)
	assert.Equal(t, "uri://files/a", parts[0].FileData.FileURI)
	assert.Equal(t, "the question", parts[1].Text)
	assert.InDelta(t, 0.1, gotBody.GenerationConfig.Temperature, 1e-9)
	assert.Equal(t, 2048, gotBody.GenerationConfig.MaxOutputTokens)
}

func TestBackend_Generate_APIError(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota exceeded"},
		})
	}))

	_, err := backend.Generate(context.Background(), driven.GenerateRequest{Model: "gemini-2.5-flash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestBackend_Generate_NoCandidates(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))

	_, err := backend.Generate(context.Background(), driven.GenerateRequest{Model: "gemini-2.5-flash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestBackend_UploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf bytes"), 0o644))

	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/v1beta/files", r.URL.Path)
		assert.Equal(t, "raw", r.Header.Get("X-Goog-Upload-Protocol"))
		assert.Equal(t, "report", r.Header.Get("X-Goog-File-Name"))
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))

		json.NewEncoder(w).Encode(map[string]any{
			"file": map[string]any{
				"name":        "files/abc123",
				"displayName": "report",
				"mimeType":    "application/pdf",
				"sizeBytes":   "9",
				"state":       "PROCESSING",
				"uri":         "uri://files/abc123",
			},
		})
	}))

	handle, err := backend.UploadFile(context.Background(), path, "report")
	require.NoError(t, err)
	assert.Equal(t, "files/abc123", handle.ID)
	assert.Equal(t, uint64(9), handle.SizeBytes)
	assert.Equal(t, driven.FileStateProcessing, handle.State)
	assert.Equal(t, "uri://files/abc123", handle.URI)
}

func TestBackend_GetFile(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/files/abc123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"name":      "files/abc123",
			"sizeBytes": "42",
			"state":     "ACTIVE",
			"uri":       "uri://files/abc123",
		})
	}))

	handle, err := backend.GetFile(context.Background(), "files/abc123")
	require.NoError(t, err)
	assert.Equal(t, driven.FileStateActive, handle.State)
	assert.Equal(t, uint64(42), handle.SizeBytes)
}

func TestBackend_DeleteFile(t *testing.T) {
	var deleted string
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted = r.URL.Path
		w.Write([]byte("{}"))
	}))

	require.NoError(t, backend.DeleteFile(context.Background(), "files/abc123"))
	assert.Equal(t, "/v1beta/files/abc123", deleted)
}

func TestBackend_GetModel_UnknownModel(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 404, "message": "not found"},
		})
	}))

	_, err := backend.GetModel(context.Background(), "bogus-model")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownModel)
}

func TestBackend_GetModel_Success(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"name":             "models/gemini-2.5-flash",
			"displayName":      "Gemini 2.5 Flash",
			"inputTokenLimit":  1048576,
			"outputTokenLimit": 65536,
		})
	}))

	info, err := backend.GetModel(context.Background(), "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", info.Name, "models/ prefix stripped")
	assert.Equal(t, 1048576, info.InputTokenLimit)
}

func TestBackend_ListModels_FollowsPagination(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"models":        []map[string]any{{"name": "models/one"}},
				"nextPageToken": "page2",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{{"name": "models/two"}},
		})
	}))

	models, err := backend.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "one", models[0].Name)
	assert.Equal(t, "two", models[1].Name)
}

func TestBackend_Ping(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
	}))
	assert.NoError(t, backend.Ping(context.Background()))

	failing := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"bad key"}}`))
	}))
	assert.Error(t, failing.Ping(context.Background()))
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "text/markdown", mimeTypeFor("notes.md"))
	assert.Equal(t, "application/pdf", mimeTypeFor("doc.PDF"))
	assert.Equal(t, "application/octet-stream", mimeTypeFor("mystery.xyz"))
}
