package request

import (
	"fmt"

	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 5
	MaxTopK        = 100
)

// Request is a validated hybrid search query.
type Request struct {
	query string
	topK  int
	pred  *filter.Predicate
}

// New validates and normalizes search parameters.
// Defaults: topK=5, clamped to 100. pred may be nil (no filter).
func New(query string, topK int, pred *filter.Predicate) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	return Request{query: query, topK: topK, pred: pred}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

// Predicate returns the filter predicate, or nil when unfiltered.
func (r *Request) Predicate() *filter.Predicate { return r.pred }
