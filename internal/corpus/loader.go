package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/document"
)

// articleDTO is the on-disk JSON shape of a knowledge base article: one flat
// record per article, metadata fields alongside doc_id/title/body.
type articleDTO struct {
	DocID          string   `json:"doc_id"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	Region         string   `json:"region"`
	ProductVersion string   `json:"product_version"`
	Category       string   `json:"category"`
	Deprecated     bool     `json:"deprecated"`
	EffectiveDate  string   `json:"effective_date"`
	ErrorCodes     []string `json:"error_codes"`
}

// FileSource loads articles from a JSON file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a corpus source backed by a file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load implements usecase/indexer.CorpusSource.
func (f *FileSource) Load() ([]document.Document, error) {
	return Load(f.path)
}

// Load reads a JSON array of articles from path. Corpus order is preserved:
// it defines tie-breaking for equal relevance scores downstream.
func Load(path string) ([]document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON array of articles.
func Parse(data []byte) ([]document.Document, error) {
	var dtos []articleDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(dtos) == 0 {
		return nil, domain.ErrCorpusEmpty
	}

	docs := make([]document.Document, 0, len(dtos))
	seen := make(map[string]bool, len(dtos))

	for i, dto := range dtos {
		if seen[dto.DocID] {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateDocID, dto.DocID)
		}
		seen[dto.DocID] = true

		meta, err := document.NewMetadata(
			dto.Region,
			dto.ProductVersion,
			dto.Category,
			dto.Deprecated,
			dto.EffectiveDate,
			dto.ErrorCodes,
		)
		if err != nil {
			return nil, fmt.Errorf("article %d (%s): %w", i, dto.DocID, err)
		}

		doc, err := document.New(dto.DocID, dto.Title, dto.Body, meta)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", i, err)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
