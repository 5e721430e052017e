package driven

// Prompt names used with PromptStore.Load.
const (
	// PromptSystem is the default system instruction for grounded answers.
	PromptSystem = "system"

	// PromptSearch wraps a free-form search query.
	PromptSearch = "search"

	// PromptQA wraps a direct question.
	PromptQA = "qa"

	// PromptSummarize asks for a document summary.
	PromptSummarize = "summarize"
)

// PromptStore loads prompt templates by name.
// Implementations fall back to embedded defaults when a template is
// missing, so Load only fails for unknown names.
type PromptStore interface {
	Load(name string) (string, error)
}
