package search

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/domain/document"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/request"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	"github.com/kailas-cloud/fusedex/internal/sparse"
)

// --- Mocks ---

type vectorCall struct {
	topK int
	pred *filter.Predicate
}

type mockVector struct {
	items        []result.Item
	err          error
	failFiltered bool // fail only the calls that carry a predicate
	calls        []vectorCall
}

func (m *mockVector) Query(
	_ context.Context, _ string, topK int, pred *filter.Predicate,
) ([]result.Item, error) {
	m.calls = append(m.calls, vectorCall{topK: topK, pred: pred})
	if m.failFiltered {
		if pred != nil {
			return nil, m.err
		}
		return m.items, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// --- Helpers ---

func corpusDoc(t *testing.T, id, title, body, region string, deprecated bool) document.Document {
	t.Helper()
	meta, err := document.NewMetadata(region, "v2.0", "billing", deprecated, "2024-01-15", nil)
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	doc, err := document.New(id, title, body, meta)
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return doc
}

func handleWith(docs ...document.Document) *sparse.Handle {
	h := sparse.NewHandle()
	h.Swap(sparse.Build(docs))
	return h
}

func mustRequest(t *testing.T, query string, topK int, rawFilter string) *request.Request {
	t.Helper()
	var pred *filter.Predicate
	if rawFilter != "" {
		var err error
		pred, err = filter.Parse([]byte(rawFilter))
		if err != nil {
			t.Fatalf("filter.Parse: %v", err)
		}
	}
	req, err := request.New(query, topK, pred)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func denseItem(id string, rank int) result.Item {
	return result.New(id, 1.0-float64(rank)*0.1, rank, "title "+id, "body "+id, "EU", "v2.0", "billing", false)
}

func newTestService(vector *mockVector, h *sparse.Handle) *Service {
	return New(vector, h, zap.NewNop())
}
