package domain

// Default generation parameters. Tuned for fast responses over long ones;
// callers override per query.
const (
	// DefaultTemperature keeps answers close to the source documents.
	DefaultTemperature = 0.1

	// DefaultMaxTokens bounds the answer length.
	DefaultMaxTokens = 2048

	// DefaultMaxFiles bounds how many documents accompany a query.
	DefaultMaxFiles = 5

	// AskMaxFiles is the tighter budget for direct question answering.
	AskMaxFiles = 3

	// AskMaxTokens is the shorter answer budget for direct questions.
	AskMaxTokens = 1024

	// SummarizeMaxFiles is the wider budget for document summaries.
	SummarizeMaxFiles = 7

	// SummarizeMaxTokens is the answer budget for summaries.
	SummarizeMaxTokens = 3072

	// SummarizeTemperature allows slightly more freedom for summaries.
	SummarizeTemperature = 0.3
)

// QueryOptions configures one generation query.
type QueryOptions struct {
	// SystemPrompt overrides the default system instruction when non-empty.
	SystemPrompt string

	// Temperature controls generation randomness. Zero is a valid,
	// fully deterministic setting.
	Temperature float64

	// MaxTokens bounds the generated answer; zero means DefaultMaxTokens.
	MaxTokens int

	// MaxFiles bounds how many documents are sent with the query.
	// Nil means DefaultMaxFiles; an explicit zero sends no documents.
	MaxFiles *int
}

// DefaultQueryOptions returns options with the standard budgets applied.
func DefaultQueryOptions() QueryOptions {
	maxFiles := DefaultMaxFiles
	return QueryOptions{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		MaxFiles:    &maxFiles,
	}
}
