package health

import (
	"context"

	"github.com/kailas-cloud/fusedex/internal/sparse"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotChecker reports whether a sparse index snapshot is published.
type SnapshotChecker interface {
	Snapshot() (*sparse.Snapshot, error)
}
