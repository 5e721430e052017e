package driving

import (
	"context"
	"time"

	"github.com/docask/docask-cli/internal/core/domain"
)

// QueryService orchestrates grounded generation queries against stores.
//
// None of the query methods return an error: failures are reported
// through the SearchResponse itself (Err set, Answer describing the
// failure) so callers always receive a structured result.
type QueryService interface {
	// Run answers a query grounded on one store's documents.
	Run(ctx context.Context, query, storeName string, opts domain.QueryOptions) *domain.SearchResponse

	// RunMultiStore answers a query grounded on several stores at once.
	RunMultiStore(ctx context.Context, query string, storeNames []string, opts domain.QueryOptions) *domain.SearchResponse

	// Ask answers a direct question with a tight file budget and
	// deterministic generation. Extra context may be supplied.
	Ask(ctx context.Context, question, storeName, extraContext string, maxFiles int) *domain.SearchResponse

	// Summarize produces a summary of a store's documents, optionally
	// focused on a topic.
	Summarize(ctx context.Context, storeName, focusTopic string, maxFiles int) *domain.SearchResponse

	// BatchRun executes queries sequentially with a delay between
	// submissions. One query's failure does not abort the batch.
	BatchRun(ctx context.Context, queries []string, storeName string, delay time.Duration) []*domain.SearchResponse

	// SetModel switches the generation model after validating the
	// backend knows it. On failure the active model is unchanged.
	SetModel(ctx context.Context, name string) error

	// Model returns the active generation model name.
	Model() string

	// ClearCache drops all cached remote file handles.
	ClearCache()
}
