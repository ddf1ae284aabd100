package retrieval

import "math"

// selectDiverse shortlists up to k candidates by greedy maximal marginal
// relevance: score = lambda*relevance + (1-lambda)*diversity. Diversity is
// measured over the scalar similarity values, not embedding vectors; two
// chunks count as diverse when their relevance scores differ. The shortlist
// keeps near-duplicate high scorers from crowding out distinct content.
func selectDiverse(candidates []Candidate, lambda float64, k int) []Candidate {
	selected := make([]Candidate, 0, k)
	remaining := append([]Candidate(nil), candidates...)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)

		// Strict > means ties go to the first candidate scanned, which keeps
		// selection deterministic for equal scores.
		for i, cand := range remaining {
			score := lambda*cand.Similarity + (1-lambda)*marginalDiversity(selected, cand)
			if score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// marginalDiversity is the largest similarity gap between the candidate and
// any already-selected chunk. An empty selection counts as maximally diverse,
// so the first pick is simply the most relevant candidate.
func marginalDiversity(selected []Candidate, cand Candidate) float64 {
	if len(selected) == 0 {
		return 1
	}
	maxGap := 0.0
	for _, s := range selected {
		if gap := math.Abs(s.Similarity - cand.Similarity); gap > maxGap {
			maxGap = gap
		}
	}
	return maxGap
}
