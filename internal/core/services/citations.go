package services

import (
	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/logger"
)

// unknownFile is the placeholder for a chunk with no resolvable file name.
const unknownFile = "Unknown File"

// ExtractCitations builds the canonical citation list from a grounding
// payload. Backend response variants expose file name, passage text,
// page and score through different optional fields, so each value is
// probed in a fixed order: primary field, nested source field, then a
// placeholder. Extraction never fails; absent metadata yields an empty
// list and a chunk carrying no usable fields at all is skipped with a
// warning.
//
// The result is deduplicated: first occurrence of each
// (fileName, chunkText[:100]) key wins, order preserved.
func ExtractCitations(grounding *domain.GroundingMetadata) []domain.Citation {
	if grounding == nil || len(grounding.Chunks) == 0 {
		return []domain.Citation{}
	}

	citations := make([]domain.Citation, 0, len(grounding.Chunks))
	for i, chunk := range grounding.Chunks {
		if emptyChunk(chunk) {
			logger.Warn("Skipping grounding chunk %d: no file name or passage text", i)
			continue
		}
		citations = append(citations, domain.Citation{
			FileName:   chunkFileName(chunk),
			ChunkText:  chunkText(chunk),
			PageNumber: chunkPage(chunk),
			Score:      chunkScore(chunk),
			Metadata:   chunk.Metadata,
		})
	}

	return DedupCitations(citations)
}

// DedupCitations removes duplicate citations by their DedupKey,
// keeping the first occurrence and preserving order. Idempotent:
// re-running on an already deduplicated list is a no-op.
func DedupCitations(citations []domain.Citation) []domain.Citation {
	seen := make(map[string]bool, len(citations))
	unique := make([]domain.Citation, 0, len(citations))

	for _, c := range citations {
		key := c.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}

	return unique
}

// GroundingSummary condenses the grounding payload for the response.
// Returns nil when no payload is present.
func GroundingSummary(grounding *domain.GroundingMetadata) map[string]any {
	if grounding == nil {
		return nil
	}
	summary := map[string]any{
		"chunk_count": len(grounding.Chunks),
	}
	if grounding.SupportScore != nil {
		summary["support_score"] = *grounding.SupportScore
	}
	return summary
}

// emptyChunk reports whether a chunk carries nothing a citation could
// be built from.
func emptyChunk(c domain.GroundingChunk) bool {
	return chunkFileName(c) == unknownFile && chunkText(c) == ""
}

func chunkFileName(c domain.GroundingChunk) string {
	if c.FileName != "" {
		return c.FileName
	}
	if c.Source != nil && c.Source.FileName != "" {
		return c.Source.FileName
	}
	return unknownFile
}

func chunkText(c domain.GroundingChunk) string {
	if c.ChunkText != "" {
		return c.ChunkText
	}
	return c.Content
}

func chunkPage(c domain.GroundingChunk) *int {
	if c.PageNumber != nil {
		return c.PageNumber
	}
	if c.Source != nil {
		return c.Source.PageNumber
	}
	return nil
}

func chunkScore(c domain.GroundingChunk) *float64 {
	if c.Score != nil {
		return c.Score
	}
	return c.RelevanceScore
}
