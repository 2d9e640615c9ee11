package search

import (
	"sort"

	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges ranked lists via Reciprocal Rank Fusion:
// score(d) = sum of 1/(k + rank_L(d)) over the lists containing d; absence
// from a list contributes nothing. Equal fused scores are ordered by first
// appearance scanning the input lists in the order given (and within that
// list, by rank), so output is fully deterministic given deterministic
// inputs. Display fields come from the list that first introduced the
// document. Output ranks are contiguous from 1.
func fuseRRF(lists [][]result.Item, k int) []result.Item {
	type scored struct {
		item  result.Item
		score float64
		seen  int // first-appearance ordinal, the tie-break key
	}

	merged := make(map[string]*scored)
	nextSeen := 0

	for _, list := range lists {
		for _, it := range list {
			contribution := 1.0 / float64(k+it.Rank())
			if existing, ok := merged[it.DocID()]; ok {
				existing.score += contribution
				continue
			}
			merged[it.DocID()] = &scored{item: it, score: contribution, seen: nextSeen}
			nextSeen++
		}
	}

	flat := make([]*scored, 0, len(merged))
	for _, s := range merged {
		flat = append(flat, s)
	}
	sort.Slice(flat, func(i, j int) bool {
		if flat[i].score != flat[j].score {
			return flat[i].score > flat[j].score
		}
		return flat[i].seen < flat[j].seen
	})

	fused := make([]result.Item, 0, len(flat))
	for i, s := range flat {
		fused = append(fused, s.item.WithScoreRank(s.score, i+1))
	}
	return fused
}
