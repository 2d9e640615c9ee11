package db

import "github.com/kailas-cloud/fusedex/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search. Predicate (optional)
// is translated into a native FT.SEARCH pre-filter, so filtered documents
// never enter the KNN candidate set.
type KNNQuery struct {
	IndexName    string
	Predicate    *filter.Predicate
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. Score is cosine similarity
// (1 - distance), higher is better; entries arrive sorted by descending score.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
