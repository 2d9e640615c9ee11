package sparse

import (
	"sync/atomic"

	"github.com/kailas-cloud/fusedex/internal/domain"
)

// Handle is an atomically swappable pointer to the current corpus Snapshot.
// Readers take one snapshot per query and keep it for the query's duration;
// a rebuild swaps in a wholly new snapshot without disturbing in-flight
// queries.
type Handle struct {
	cur atomic.Pointer[Snapshot]
}

// NewHandle creates an empty handle. Until the first Swap, Snapshot returns
// ErrIndexUnavailable.
func NewHandle() *Handle {
	return &Handle{}
}

// Swap publishes a new snapshot.
func (h *Handle) Swap(s *Snapshot) {
	h.cur.Store(s)
}

// Snapshot returns the current snapshot.
func (h *Handle) Snapshot() (*Snapshot, error) {
	s := h.cur.Load()
	if s == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return s, nil
}
