package services

import (
	"fmt"
	"strings"

	"github.com/docask/docask-cli/internal/core/domain"
)

// previewLen caps the passage preview in formatted output.
const previewLen = 200

// FormatResponse renders a search response for display: the answer
// text, then (when requested and present) a numbered source list with
// page number and relevance score where known, and a truncated preview
// of each passage.
func FormatResponse(resp *domain.SearchResponse, includeCitations bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Answer:**\n%s\n", resp.Answer)

	if !includeCitations || len(resp.Citations) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "\n**Sources (%d found):**\n", len(resp.Citations))
	for i, c := range resp.Citations {
		fmt.Fprintf(&b, "%d. **%s**", i+1, c.FileName)
		if c.PageNumber != nil {
			fmt.Fprintf(&b, " (Page %d)", *c.PageNumber)
		}
		if c.Score != nil {
			fmt.Fprintf(&b, " (Relevance: %.2f)", *c.Score)
		}
		b.WriteString("\n")

		if c.ChunkText != "" {
			fmt.Fprintf(&b, "   _%s_\n", truncate(c.ChunkText, previewLen))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCitations renders only the source list: numbered file names
// with page numbers where known.
func FormatCitations(citations []domain.Citation) string {
	if len(citations) == 0 {
		return "No sources found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Sources (%d found):**\n", len(citations))
	for i, c := range citations {
		fmt.Fprintf(&b, "%d. %s", i+1, c.FileName)
		if c.PageNumber != nil {
			fmt.Fprintf(&b, " (Page %d)", *c.PageNumber)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// truncate shortens s to max characters, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
