package search

import "sort"

// rrfK dampens the contribution of lower ranks during fusion.
const rrfK = 60

// fuseRanks merges ranked id lists by reciprocal rank fusion. Each
// list contributes 1/(rank+k) per id with ranks starting at one. The
// fused order is best first, ties on the lower id.
func fuseRanks(lists [][]uint64, k int) []uint64 {
	scores := make(map[uint64]float64)
	for _, list := range lists {
		for rank, id := range list {
			scores[id] += 1 / float64(rank+1+k)
		}
	}
	if len(scores) == 0 {
		return nil
	}

	fused := make([]uint64, 0, len(scores))
	for id := range scores {
		fused = append(fused, id)
	}
	sort.Slice(fused, func(i, j int) bool {
		if scores[fused[i]] != scores[fused[j]] {
			return scores[fused[i]] > scores[fused[j]]
		}
		return fused[i] < fused[j]
	})
	return fused
}
