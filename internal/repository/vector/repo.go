package vector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kailas-cloud/fusedex/internal/db"
	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

const (
	// IndexName is the FT index over article hashes.
	IndexName = domain.KeyPrefix + "doc:idx"

	docKeyPrefix = domain.KeyPrefix + "doc:"
)

// searchStore is the consumer interface for KNN queries (ISP).
type searchStore interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.VectorSearcher over Redis FT.SEARCH.
// Queries run behind a circuit breaker so a struggling Redis instance sheds
// load fast instead of queueing timeouts.
type Repo struct {
	store    searchStore
	embedder domain.Embedder
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
}

// New creates a vector search repository. timeout bounds a single KNN
// round-trip, embedding excluded.
func New(s searchStore, embedder domain.Embedder, timeout time.Duration) *Repo {
	st := gobreaker.Settings{
		Name:    "vector-search",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}

	return &Repo{
		store:    s,
		embedder: embedder,
		breaker:  gobreaker.NewCircuitBreaker(st),
		timeout:  timeout,
	}
}

// Query embeds the query text and runs a filtered KNN search. A predicate
// the index cannot express natively is evaluated locally against the stored
// metadata instead, so both retrieval branches enforce the same filter.
func (r *Repo) Query(
	ctx context.Context, query string, topK int, pred *filter.Predicate,
) ([]result.Item, error) {
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.searchKNN(ctx, emb.Embedding, topK, pred)
	if err != nil {
		if pred != nil && errors.Is(err, db.ErrPredicateNotIndexable) {
			return r.queryPostFiltered(ctx, emb.Embedding, topK, pred)
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	return parseEntries(res), nil
}

func (r *Repo) searchKNN(
	ctx context.Context, vec []float32, k int, pred *filter.Predicate,
) (*db.SearchResult, error) {
	q := &db.KNNQuery{
		IndexName:    IndexName,
		Predicate:    pred,
		Vector:       vec,
		K:            k,
		ReturnFields: returnFields,
	}

	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.store.SearchKNN(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return res.(*db.SearchResult), nil
}

// queryPostFiltered runs an unfiltered KNN with a wider net and evaluates
// the predicate against each candidate's stored metadata, keeping the first
// topK survivors re-ranked from 1. Same attrition compensation the lexical
// branch uses for its post-hoc filtering.
func (r *Repo) queryPostFiltered(
	ctx context.Context, vec []float32, topK int, pred *filter.Predicate,
) ([]result.Item, error) {
	wideK := topK * 10 / 3
	if wideK < topK {
		wideK = topK
	}

	res, err := r.searchKNN(ctx, vec, wideK, nil)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	kept := make([]db.SearchEntry, 0, len(res.Entries))
	for _, entry := range res.Entries {
		if !pred.Eval(recordFromFields(entry.Fields)) {
			continue
		}
		kept = append(kept, entry)
		if len(kept) == topK {
			break
		}
	}

	return parseEntries(&db.SearchResult{Total: len(kept), Entries: kept}), nil
}
