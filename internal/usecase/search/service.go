package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/request"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	"github.com/kailas-cloud/fusedex/internal/metrics"
	"github.com/kailas-cloud/fusedex/internal/sparse"
)

// Over-fetch multipliers feeding the fuser. The sparse branch casts a wider
// net when a filter must be applied post-hoc, to compensate for filtering
// attrition.
const (
	overFetchMultiplier    = 3
	sparseFilterMultiplier = 10
)

// Service is the hybrid retrieval orchestrator: it fans out to the dense
// branch (vector port, filter enforced natively) and the sparse branch
// (local BM25, filter applied post-hoc), fuses both rankings via RRF, and
// applies the degradation policy when filters eliminate every candidate.
type Service struct {
	vector    VectorSearcher
	sparseIdx SnapshotProvider
	logger    *zap.Logger
}

// New creates a hybrid search service.
func New(vector VectorSearcher, sparseIdx SnapshotProvider, logger *zap.Logger) *Service {
	return &Service{vector: vector, sparseIdx: sparseIdx, logger: logger}
}

// Search executes a hybrid query and returns up to req.TopK() display-ready
// results with contiguous ranks from 1. An empty slice is a valid outcome
// for a genuinely matchless query, not an error.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Item, error) {
	items, err := s.search(ctx, req.Query(), req.TopK(), req.Predicate(), true)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
	return items, nil
}

func (s *Service) search(
	ctx context.Context, query string, topK int, pred *filter.Predicate, allowRetry bool,
) ([]result.Item, error) {
	snap, err := s.sparseIdx.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("sparse snapshot: %w", err)
	}

	// The branches share no mutable state; both must complete before fusion.
	var dense, sparseItems []result.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var derr error
		dense, derr = s.searchDense(gctx, query, topK, pred)
		metrics.SearchBranchDuration.WithLabelValues("dense").Observe(time.Since(start).Seconds())
		return derr
	})
	g.Go(func() error {
		start := time.Now()
		sparseItems = s.searchSparse(snap, query, topK, pred)
		metrics.SearchBranchDuration.WithLabelValues("sparse").Observe(time.Since(start).Seconds())
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Dense first: fusion ties break toward the dense branch.
	fused := fuseRRF([][]result.Item{dense, sparseItems}, rrfK)

	// Top-level fallback: a filtered query that fused to nothing is re-run
	// once without the filter. At most one recursion; an empty retry is a
	// valid matchless outcome.
	if len(fused) == 0 && pred != nil && allowRetry {
		s.logger.Warn("hybrid search with filter returned no results, retrying unfiltered",
			zap.String("query", query))
		metrics.SearchFallbackTotal.WithLabelValues(metrics.FallbackTopLevel).Inc()
		return s.search(ctx, query, topK, nil, false)
	}

	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}

// searchDense queries the vector port for 3*topK candidates with the filter
// enforced by the port. A transport failure with a filter present is retried
// once without the filter; a failure with no filter is fatal for the query.
func (s *Service) searchDense(
	ctx context.Context, query string, topK int, pred *filter.Predicate,
) ([]result.Item, error) {
	items, err := s.vector.Query(ctx, query, overFetchMultiplier*topK, pred)
	if err == nil {
		return items, nil
	}
	if pred == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorPortFailure, err)
	}

	s.logger.Warn("filtered dense search failed, retrying without filter",
		zap.String("query", query), zap.Error(err))
	metrics.SearchFallbackTotal.WithLabelValues(metrics.FallbackDenseFilterDrop).Inc()

	items, err = s.vector.Query(ctx, query, overFetchMultiplier*topK, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorPortFailure, err)
	}
	return items, nil
}

// searchSparse runs the local BM25 branch. With a filter present it
// over-fetches 10*topK, evaluates the predicate against each candidate's
// metadata, re-ranks the survivors contiguously from 1, and keeps the first
// 3*topK. When filtering eliminates every candidate it falls back to an
// unfiltered query, silently except for the fallback signal.
func (s *Service) searchSparse(
	snap *sparse.Snapshot, query string, topK int, pred *filter.Predicate,
) []result.Item {
	if pred == nil {
		return snap.Search(query, overFetchMultiplier*topK)
	}

	raw := snap.Search(query, sparseFilterMultiplier*topK)
	kept := make([]result.Item, 0, len(raw))
	for _, it := range raw {
		record, ok := snap.Record(it.DocID())
		if !ok || !pred.Eval(record) {
			continue
		}
		kept = append(kept, it.WithScoreRank(it.Score(), len(kept)+1))
	}

	if len(kept) == 0 {
		s.logger.Warn("sparse post-hoc filter eliminated all candidates, using unfiltered BM25",
			zap.String("query", query))
		metrics.SearchFallbackTotal.WithLabelValues(metrics.FallbackSparsePostFilter).Inc()
		return snap.Search(query, overFetchMultiplier*topK)
	}

	if len(kept) > overFetchMultiplier*topK {
		kept = kept[:overFetchMultiplier*topK]
	}
	return kept
}
