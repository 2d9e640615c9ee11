package search

import (
	"context"

	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	"github.com/kailas-cloud/fusedex/internal/sparse"
)

// VectorSearcher is the dense retrieval port: an external vector index that
// embeds the query, enforces the filter predicate (natively when the index
// can express it, locally otherwise), and returns candidates ordered by
// descending similarity with ranks 1..n. It may return fewer than topK
// results and it may fail; the orchestrator's retry policy handles transport
// failures.
type VectorSearcher interface {
	Query(ctx context.Context, query string, topK int, pred *filter.Predicate) ([]result.Item, error)
}

// SnapshotProvider yields the current sparse corpus snapshot.
type SnapshotProvider interface {
	Snapshot() (*sparse.Snapshot, error)
}
