package retrieval

import (
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/model"
)

// ReciprocalRankFusion merges ranked lists into one list. Each item at
// zero-based rank r in a list contributes 1/(k+r+1) to its accumulated
// score; items absent from a list contribute nothing. The fused order is
// descending accumulated score, ties stay in discovery order across the
// lists. Native scores are non-comparable across sources, so the
// candidate's Score is replaced by the accumulated fusion score.
func ReciprocalRankFusion(k int, lists ...[]*model.RankedCandidate) []*model.RankedCandidate {
	scores := map[uuid.UUID]float64{}
	candidates := map[uuid.UUID]*model.RankedCandidate{}
	var order []uuid.UUID

	for _, list := range lists {
		for rank, candidate := range list {
			scores[candidate.ID] += 1.0 / float64(k+rank+1)
			if _, seen := candidates[candidate.ID]; !seen {
				candidates[candidate.ID] = candidate
				order = append(order, candidate.ID)
			}
		}
	}

	fused := make([]*model.RankedCandidate, 0, len(order))
	for _, id := range order {
		candidate := candidates[id]
		candidate.Score = scores[id]
		fused = append(fused, candidate)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused
}
