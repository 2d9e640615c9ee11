package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/fusedex/internal/db"
	"github.com/kailas-cloud/fusedex/internal/domain/document"
)

// writeStore is the consumer interface for index rebuilds (ISP).
type writeStore interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Writer rebuilds the article index and its backing hashes.
type Writer struct {
	store writeStore
}

// NewWriter creates a vector index writer.
func NewWriter(s writeStore) *Writer {
	return &Writer{store: s}
}

// RecreateIndex drops the FT index and all article hashes, then creates a
// fresh index for vectors of the given dimension.
func (w *Writer) RecreateIndex(ctx context.Context, dim int) error {
	if err := w.store.DropIndex(ctx, IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}

	keys, err := w.store.Scan(ctx, docKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan stale keys: %w", err)
	}
	for _, key := range keys {
		if err := w.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete stale key %s: %w", key, err)
		}
	}

	def := indexDefinition(dim)
	if err := w.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// UpsertDocuments stores articles with their embeddings. docs and vectors
// are parallel slices.
func (w *Writer) UpsertDocuments(ctx context.Context, docs []document.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs/vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for i := range docs {
		items = append(items, db.HashSetItem{
			Key:    docKeyPrefix + docs[i].ID(),
			Fields: buildHashFields(&docs[i], vectors[i]),
		})
	}

	if err := w.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert documents: %w", err)
	}
	return nil
}

func indexDefinition(dim int) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     IndexName,
		Prefixes: []string{docKeyPrefix},
		Fields: []db.IndexField{
			{Name: document.FieldRegion, Type: db.IndexFieldTag},
			{Name: document.FieldProductVersion, Type: db.IndexFieldTag},
			{Name: document.FieldCategory, Type: db.IndexFieldTag},
			{Name: document.FieldDeprecated, Type: db.IndexFieldTag},
			{Name: document.FieldErrorCodes, Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: document.FieldEffectiveDate, Type: db.IndexFieldNumeric},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           16,
				VectorEFConstruct: 200,
			},
		},
	}
}
