package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/metrics"
	"github.com/kailas-cloud/fusedex/internal/sparse"
)

// embedConcurrency bounds parallel embedding calls during a rebuild.
const embedConcurrency = 4

// Service rebuilds both retrieval indexes from the corpus: article hashes
// plus the FT index in Redis, and the in-memory sparse index. The sparse
// snapshot is swapped in last, so readers never observe a half-built corpus.
type Service struct {
	source   CorpusSource
	writer   VectorWriter
	embedder domain.Embedder
	handle   SnapshotSwapper
	logger   *zap.Logger
}

// New creates an indexer service.
func New(
	source CorpusSource, writer VectorWriter,
	embedder domain.Embedder, handle SnapshotSwapper,
	logger *zap.Logger,
) *Service {
	return &Service{
		source:   source,
		writer:   writer,
		embedder: embedder,
		handle:   handle,
		logger:   logger,
	}
}

// Rebuild loads the corpus, embeds every article, recreates the vector
// index, and publishes a fresh sparse snapshot. Returns the number of
// indexed articles.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	n, err := s.rebuild(ctx)
	if err != nil {
		metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.IndexRebuildsTotal.WithLabelValues("success").Inc()
	metrics.IndexDocuments.Set(float64(n))
	return n, nil
}

func (s *Service) rebuild(ctx context.Context) (int, error) {
	docs, err := s.source.Load()
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}

	vectors := make([][]float32, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for i := range docs {
		g.Go(func() error {
			res, err := s.embedder.Embed(gctx, docs[i].SearchText())
			if err != nil {
				return fmt.Errorf("embed %s: %w", docs[i].ID(), err)
			}
			vectors[i] = res.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	dim := len(vectors[0])
	if err := s.writer.RecreateIndex(ctx, dim); err != nil {
		return 0, err
	}
	if err := s.writer.UpsertDocuments(ctx, docs, vectors); err != nil {
		return 0, err
	}

	s.handle.Swap(sparse.Build(docs))

	s.logger.Info("Index rebuilt",
		zap.Int("documents", len(docs)),
		zap.Int("vector_dim", dim),
	)
	return len(docs), nil
}
