package indexer

import (
	"context"

	"github.com/kailas-cloud/fusedex/internal/domain/document"
	"github.com/kailas-cloud/fusedex/internal/sparse"
)

// CorpusSource yields the full article corpus in insertion order.
type CorpusSource interface {
	Load() ([]document.Document, error)
}

// VectorWriter rebuilds the vector index and its document hashes.
type VectorWriter interface {
	RecreateIndex(ctx context.Context, dim int) error
	UpsertDocuments(ctx context.Context, docs []document.Document, vectors [][]float32) error
}

// SnapshotSwapper publishes a new sparse index snapshot.
type SnapshotSwapper interface {
	Swap(snap *sparse.Snapshot)
}
