package sparse

import (
	"math"
	"sort"

	"github.com/kailas-cloud/fusedex/internal/domain/document"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

// Okapi BM25 smoothing constants.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Snapshot is an immutable BM25 index over a full corpus. It is built once
// and safe to share read-only across concurrent queries; rebuilding means
// constructing a new Snapshot and swapping it in via Handle.
type Snapshot struct {
	docs      []document.Document // corpus insertion order, the tie-break order
	byID      map[string]int
	records   []map[string]string // flattened metadata per doc
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	avgDocLen float64
}

// Build constructs a Snapshot from the corpus in its given order. For each
// document the title and body are concatenated and tokenized.
func Build(docs []document.Document) *Snapshot {
	s := &Snapshot{
		docs:      docs,
		byID:      make(map[string]int, len(docs)),
		records:   make([]map[string]string, len(docs)),
		termFreqs: make([]map[string]int, len(docs)),
		docLens:   make([]int, len(docs)),
		docFreq:   make(map[string]int),
	}

	totalLen := 0
	for i := range docs {
		tokens := Tokenize(docs[i].SearchText())
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			s.docFreq[term]++
		}

		s.termFreqs[i] = tf
		s.docLens[i] = len(tokens)
		totalLen += len(tokens)

		meta := docs[i].Meta()
		s.records[i] = meta.Flatten()
		s.byID[docs[i].ID()] = i
	}

	if len(docs) > 0 {
		s.avgDocLen = float64(totalLen) / float64(len(docs))
	}
	return s
}

// Len returns the corpus size.
func (s *Snapshot) Len() int { return len(s.docs) }

// Record returns the flattened metadata record for a document, for post-hoc
// filter evaluation.
func (s *Snapshot) Record(docID string) (map[string]string, bool) {
	i, ok := s.byID[docID]
	if !ok {
		return nil, false
	}
	return s.records[i], true
}

// Search tokenizes the query, BM25-scores every document (zero scores stay
// eligible), and returns the first topK items ranked 1..n. Ties, including
// the all-zero scores of an empty tokenized query, resolve to corpus
// insertion order.
func (s *Snapshot) Search(query string, topK int) []result.Item {
	if len(s.docs) == 0 || topK <= 0 {
		return nil
	}

	scores := s.scoreAll(Tokenize(query))

	order := make([]int, len(s.docs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return ia < ib
	})

	if topK > len(order) {
		topK = len(order)
	}

	items := make([]result.Item, 0, topK)
	for rank, idx := range order[:topK] {
		doc := &s.docs[idx]
		meta := doc.Meta()
		items = append(items, result.New(
			doc.ID(), scores[idx], rank+1,
			doc.Title(), doc.Body(),
			meta.Region(), meta.ProductVersion(), meta.Category(),
			meta.Deprecated(),
		))
	}
	return items
}

// scoreAll sums the Okapi BM25 contribution of each query term over every
// document. Terms unseen in the corpus contribute zero.
func (s *Snapshot) scoreAll(queryTokens []string) []float64 {
	scores := make([]float64, len(s.docs))

	for _, term := range queryTokens {
		df := s.docFreq[term]
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (float64(len(s.docs))-float64(df)+0.5)/(float64(df)+0.5))

		for i := range s.docs {
			tf := float64(s.termFreqs[i][term])
			if tf == 0 {
				continue
			}
			norm := 1 - bm25B + bm25B*float64(s.docLens[i])/s.avgDocLen
			scores[i] += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*norm)
		}
	}
	return scores
}
