package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/db"
	"github.com/kailas-cloud/fusedex/internal/domain"
)

type mockStore struct {
	data map[string][]byte
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

type countingEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	c.calls++
	if c.err != nil {
		return domain.EmbeddingResult{}, c.err
	}
	return domain.EmbeddingResult{Embedding: c.vec, TotalTokens: 7}, nil
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	store := newMockStore()
	cached := New(inner, store, "text-embedding-3-small", nil, zap.NewNop())

	first, err := cached.Embed(context.Background(), "timeout errors")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", inner.calls)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss must report provider token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(context.Background(), "timeout errors")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("hit must not call the provider, got %d calls", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit consumes no tokens, got %d", second.TotalTokens)
	}
	if len(second.Embedding) != 3 {
		t.Fatalf("cached vector length: got %d", len(second.Embedding))
	}
	for i := range first.Embedding {
		if first.Embedding[i] != second.Embedding[i] {
			t.Errorf("vector component %d: %f != %f", i, first.Embedding[i], second.Embedding[i])
		}
	}
}

func TestEmbed_KeyIncludesModel(t *testing.T) {
	store := newMockStore()

	a := New(&countingEmbedder{vec: []float32{0.1}}, store, "model-a", nil, zap.NewNop())
	b := New(&countingEmbedder{vec: []float32{0.9}}, store, "model-b", nil, zap.NewNop())

	if _, err := a.Embed(context.Background(), "same text"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	res, err := b.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if res.Embedding[0] != float32(0.9) {
		t.Error("model-b must not see model-a cache entries")
	}
	if len(store.data) != 2 {
		t.Errorf("expected 2 distinct cache keys, got %d", len(store.data))
	}
}

func TestEmbed_StoreFailureFallsThrough(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.5}}
	store := newMockStore()
	store.err = errors.New("connection refused")

	cached := New(inner, store, "m", nil, zap.NewNop())

	res, err := cached.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("cache failure must not fail the embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("provider calls: got %d", inner.calls)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("embedding passthrough: got %d dims", len(res.Embedding))
	}
}

func TestEmbed_ProviderFailure(t *testing.T) {
	inner := &countingEmbedder{err: domain.ErrEmbeddingProviderError}
	cached := New(inner, newMockStore(), "m", nil, zap.NewNop())

	_, err := cached.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestBytesToVector_RejectsTruncatedData(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for non-multiple-of-4 data")
	}

	round, err := bytesToVector(vectorToCacheBytes([]float32{1.5, -2.25}))
	if err != nil {
		t.Fatalf("bytesToVector: %v", err)
	}
	if round[0] != 1.5 || round[1] != -2.25 {
		t.Errorf("roundtrip mismatch: %v", round)
	}
}
