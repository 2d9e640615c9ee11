package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/document"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	"github.com/kailas-cloud/fusedex/internal/sparse"
)

func TestSearch_FusesBothBranches(t *testing.T) {
	vector := &mockVector{items: []result.Item{denseItem("d1", 1), denseItem("d2", 2)}}
	h := handleWith(
		corpusDoc(t, "d2", "invoice error", "billing invoice error", "EU", false),
		corpusDoc(t, "d3", "invoice retry", "billing retry", "US", false),
	)
	svc := newTestService(vector, h)

	items, err := svc.Search(context.Background(), mustRequest(t, "invoice", 5, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// d2 appears in both branches and must rank first.
	if items[0].DocID() != "d2" {
		t.Errorf("expected d2 first, got %s", items[0].DocID())
	}

	seen := map[string]bool{}
	for i, it := range items {
		if it.Rank() != i+1 {
			t.Errorf("position %d: rank %d", i, it.Rank())
		}
		if seen[it.DocID()] {
			t.Errorf("duplicate doc %s in fused output", it.DocID())
		}
		seen[it.DocID()] = true
	}

	if len(vector.calls) != 1 || vector.calls[0].topK != 15 {
		t.Errorf("expected one dense call with 3*topK=15, got %+v", vector.calls)
	}
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	vector := &mockVector{items: []result.Item{
		denseItem("a", 1), denseItem("b", 2), denseItem("c", 3), denseItem("d", 4),
	}}
	h := handleWith(
		corpusDoc(t, "e", "alpha", "", "EU", false),
		corpusDoc(t, "f", "beta", "", "EU", false),
	)
	svc := newTestService(vector, h)

	items, err := svc.Search(context.Background(), mustRequest(t, "alpha", 2, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestSearch_IndexUnavailable(t *testing.T) {
	svc := newTestService(&mockVector{}, sparse.NewHandle())

	_, err := svc.Search(context.Background(), mustRequest(t, "anything", 5, ""))
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestSearch_UnfilteredDenseFailureIsFatal(t *testing.T) {
	vector := &mockVector{err: errors.New("connection refused")}
	h := handleWith(corpusDoc(t, "d1", "alpha", "", "EU", false))
	svc := newTestService(vector, h)

	_, err := svc.Search(context.Background(), mustRequest(t, "alpha", 5, ""))
	if !errors.Is(err, domain.ErrVectorPortFailure) {
		t.Errorf("expected ErrVectorPortFailure, got %v", err)
	}
	if len(vector.calls) != 1 {
		t.Errorf("expected no retry without a filter, got %d calls", len(vector.calls))
	}
}

func TestSearch_FilteredDenseFailureRetriesUnfiltered(t *testing.T) {
	vector := &mockVector{
		items:        []result.Item{denseItem("d1", 1)},
		err:          errors.New("filter syntax rejected"),
		failFiltered: true,
	}
	h := handleWith(corpusDoc(t, "d1", "alpha", "", "EU", false))
	svc := newTestService(vector, h)

	items, err := svc.Search(context.Background(),
		mustRequest(t, "alpha", 5, `{"region": {"$eq": "EU"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected results from the unfiltered retry")
	}

	if len(vector.calls) != 2 {
		t.Fatalf("expected 2 dense calls, got %d", len(vector.calls))
	}
	if vector.calls[0].pred == nil {
		t.Error("first call should carry the predicate")
	}
	if vector.calls[1].pred != nil {
		t.Error("retry must drop the predicate")
	}
}

func TestSearch_BothDenseAttemptsFailing(t *testing.T) {
	vector := &mockVector{err: errors.New("down")}
	h := handleWith(corpusDoc(t, "d1", "alpha", "", "EU", false))
	svc := newTestService(vector, h)

	_, err := svc.Search(context.Background(),
		mustRequest(t, "alpha", 5, `{"region": {"$eq": "EU"}}`))
	if !errors.Is(err, domain.ErrVectorPortFailure) {
		t.Errorf("expected ErrVectorPortFailure, got %v", err)
	}
	if len(vector.calls) != 2 {
		t.Errorf("expected exactly 2 dense attempts, got %d", len(vector.calls))
	}
}

func TestSearch_SparseFilterEliminatesAll_FallsBackUnfiltered(t *testing.T) {
	vector := &mockVector{}
	// Every document is US; the EU filter removes them all from the sparse side.
	h := handleWith(
		corpusDoc(t, "d1", "alpha topic", "", "US", false),
		corpusDoc(t, "d2", "alpha other", "", "US", false),
	)
	svc := newTestService(vector, h)

	items, err := svc.Search(context.Background(),
		mustRequest(t, "alpha", 5, `{"region": {"$eq": "EU"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected unfiltered sparse results to surface")
	}
}

func TestSearch_SparseFilterKeepsMatchesAndReRanks(t *testing.T) {
	vector := &mockVector{}
	h := handleWith(
		corpusDoc(t, "us1", "alpha topic", "", "US", false),
		corpusDoc(t, "eu1", "alpha other", "", "EU", false),
		corpusDoc(t, "eu2", "alpha third", "", "EU", false),
	)
	svc := newTestService(vector, h)

	items, err := svc.Search(context.Background(),
		mustRequest(t, "alpha", 5, `{"region": {"$eq": "EU"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, it := range items {
		if it.Region() != "EU" {
			t.Errorf("filtered result leaked region %s for %s", it.Region(), it.DocID())
		}
	}
}

func TestSearch_EmptyFusionWithFilterRetriesOnce(t *testing.T) {
	vector := &mockVector{}
	h := sparse.NewHandle()
	h.Swap(sparse.Build([]document.Document{}))
	svc := newTestService(vector, h)

	items, err := svc.Search(context.Background(),
		mustRequest(t, "alpha", 5, `{"region": {"$eq": "EU"}}`))
	if err != nil {
		t.Fatalf("matchless query must not be an error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %d", len(items))
	}

	// One filtered pass plus exactly one unfiltered re-run.
	if len(vector.calls) != 2 {
		t.Fatalf("expected 2 dense calls, got %d", len(vector.calls))
	}
	if vector.calls[1].pred != nil {
		t.Error("top-level retry must be unfiltered")
	}
}

func TestSearch_EmptyResultWithoutFilterIsValid(t *testing.T) {
	vector := &mockVector{}
	h := sparse.NewHandle()
	h.Swap(sparse.Build([]document.Document{}))
	svc := newTestService(vector, h)

	items, err := svc.Search(context.Background(), mustRequest(t, "alpha", 5, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %d", len(items))
	}
	if len(vector.calls) != 1 {
		t.Errorf("no filter, no retry: expected 1 dense call, got %d", len(vector.calls))
	}
}

func TestSearch_Deterministic(t *testing.T) {
	vector := &mockVector{items: []result.Item{denseItem("d1", 1), denseItem("d2", 2)}}
	h := handleWith(
		corpusDoc(t, "d2", "alpha beta", "", "EU", false),
		corpusDoc(t, "d3", "alpha gamma", "", "EU", false),
	)
	svc := newTestService(vector, h)

	req := mustRequest(t, "alpha", 5, "")
	first, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.Search(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("result length changed between runs")
		}
		for j := range first {
			if first[j].DocID() != again[j].DocID() || first[j].Score() != again[j].Score() {
				t.Fatalf("run %d: non-deterministic result at position %d", i, j)
			}
		}
	}
}
