package domain

// dedupKeyLen is the number of leading characters of the passage text
// that take part in the citation identity key.
const dedupKeyLen = 100

// Citation is one attributed source passage from a generation response.
type Citation struct {
	// FileName is the display name of the source document.
	FileName string `json:"file_name"`

	// ChunkText is the passage the backend grounded the answer on.
	ChunkText string `json:"chunk_text"`

	// PageNumber is set when the backend reports one.
	PageNumber *int `json:"page_number,omitempty"`

	// Score is the relevance score when the backend reports one.
	Score *float64 `json:"score,omitempty"`

	// Metadata carries any extra chunk attributes.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DedupKey returns the identity key used for citation deduplication:
// the file name plus the first 100 characters of the passage text.
// Characters, not bytes, so multi-byte text does not split mid-rune.
func (c Citation) DedupKey() string {
	text := c.ChunkText
	if runes := []rune(text); len(runes) > dedupKeyLen {
		text = string(runes[:dedupKeyLen])
	}
	return c.FileName + "\x00" + text
}

// GroundingSource is the nested source reference some backend response
// variants use instead of top-level fields.
type GroundingSource struct {
	FileName   string `json:"file_name,omitempty"`
	PageNumber *int   `json:"page_number,omitempty"`
}

// GroundingChunk is one unit of the backend's evidence payload.
// Backend response variants disagree on where they put the file name,
// passage text, page and score, so every location is optional here and
// the extractor probes them in a fixed order. See services.ExtractCitations.
type GroundingChunk struct {
	// FileName is the primary location for the source file name.
	FileName string `json:"file_name,omitempty"`

	// Source is the secondary, nested location for file name and page.
	Source *GroundingSource `json:"source,omitempty"`

	// ChunkText is the primary location for the passage text.
	ChunkText string `json:"chunk_text,omitempty"`

	// Content is the secondary location for the passage text.
	Content string `json:"content,omitempty"`

	// PageNumber is the primary location for the page number.
	PageNumber *int `json:"page_number,omitempty"`

	// Score is the primary location for the relevance score.
	Score *float64 `json:"score,omitempty"`

	// RelevanceScore is the secondary location for the relevance score.
	RelevanceScore *float64 `json:"relevance_score,omitempty"`

	// Metadata carries any extra attributes the backend attached.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// GroundingMetadata is the evidence payload attached to a generation
// response. It may be entirely absent.
type GroundingMetadata struct {
	// SupportScore is an overall grounding confidence, when reported.
	SupportScore *float64 `json:"support_score,omitempty"`

	// Chunks are the individual evidence units.
	Chunks []GroundingChunk `json:"chunks,omitempty"`
}

// SearchResponse is the structured result of one query.
type SearchResponse struct {
	// Answer is the generated answer text. For failed queries this holds
	// a descriptive failure message instead.
	Answer string `json:"answer"`

	// Citations are deduplicated source passages in first-occurrence order.
	Citations []Citation `json:"citations"`

	// ModelUsed names the generation model.
	ModelUsed string `json:"model_used"`

	// Query is the original user query.
	Query string `json:"query"`

	// GroundingSummary describes the grounding payload, when present.
	GroundingSummary map[string]any `json:"grounding_summary,omitempty"`

	// Err is set when the query failed; Answer then carries the
	// human-readable description.
	Err error `json:"-"`
}
