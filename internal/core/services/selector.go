package services

import (
	"sort"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/logger"
)

// SelectBySize chooses at most maxCount documents to send with a query.
//
// A nil maxCount, or a budget covering the whole list, returns the
// documents in their original order. Under a tighter budget the
// documents are sorted by size ascending (stable, so ties keep their
// original relative order) and the smallest maxCount are returned:
// smaller documents cost less latency and fewer tokens downstream, and
// no local relevance signal exists to rank by instead.
//
// The input slice is never mutated; selection operates on a copy.
// An explicit zero budget returns an empty selection, which callers
// treat as "no context", not as an error.
func SelectBySize(docs []domain.DocumentRecord, maxCount *int) []domain.DocumentRecord {
	if maxCount == nil || len(docs) <= *maxCount {
		return docs
	}
	if *maxCount <= 0 {
		return []domain.DocumentRecord{}
	}

	sorted := make([]domain.DocumentRecord, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SizeBytes < sorted[j].SizeBytes
	})

	selected := sorted[:*maxCount]

	var total uint64
	for _, d := range selected {
		total += d.SizeBytes
	}
	logger.Info("Limiting to %d of %d documents (%.1f MB selected)",
		*maxCount, len(docs), float64(total)/(1024*1024))

	return selected
}
