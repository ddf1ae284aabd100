package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectDiverse_BoundedBySetSize(t *testing.T) {
	selected := selectDiverse(candidatesWithScores(0.9, 0.8), 0.5, 3)
	assert.Len(t, selected, 2)

	selected = selectDiverse(candidatesWithScores(0.9, 0.8, 0.7, 0.6), 0.5, 3)
	assert.Len(t, selected, 3)

	selected = selectDiverse(candidatesWithScores(), 0.5, 3)
	assert.Empty(t, selected)
}

func TestSelectDiverse_FirstPickIsMostRelevant(t *testing.T) {
	candidates := candidatesWithScores(0.3, 0.95, 0.6)

	selected := selectDiverse(candidates, 0.5, 3)

	require.NotEmpty(t, selected)
	assert.InDelta(t, 0.95, selected[0].Similarity, 1e-9)
}

func TestSelectDiverse_EqualWeightShortlistsTopScores(t *testing.T) {
	// With lambda 0.5 the diversity gap to the top pick exactly offsets the
	// relevance deficit, so descending inputs shortlist in score order.
	candidates := candidatesWithScores(0.9, 0.85, 0.84, 0.83)

	selected := selectDiverse(candidates, 0.5, 3)

	require.Len(t, selected, 3)
	assert.InDelta(t, 0.9, selected[0].Similarity, 1e-9)
	assert.InDelta(t, 0.85, selected[1].Similarity, 1e-9)
	assert.InDelta(t, 0.84, selected[2].Similarity, 1e-9)
}

func TestSelectDiverse_DiversityWeightFavorsDistantScores(t *testing.T) {
	// Leaning toward diversity, a low scorer far from the first pick beats a
	// near-duplicate runner-up.
	candidates := candidatesWithScores(0.9, 0.89, 0.2)

	selected := selectDiverse(candidates, 0.3, 2)

	require.Len(t, selected, 2)
	assert.InDelta(t, 0.9, selected[0].Similarity, 1e-9)
	assert.InDelta(t, 0.2, selected[1].Similarity, 1e-9)
}

func TestSelectDiverse_TiesGoToEncounterOrder(t *testing.T) {
	candidates := candidatesWithScores(0.5, 0.5, 0.5, 0.5)

	selected := selectDiverse(candidates, 0.5, 3)

	require.Len(t, selected, 3)
	assert.Equal(t, "a", selected[0].ChunkID)
	assert.Equal(t, "b", selected[1].ChunkID)
	assert.Equal(t, "c", selected[2].ChunkID)
}

func TestSelectDiverse_DoesNotMutateInput(t *testing.T) {
	candidates := candidatesWithScores(0.9, 0.8, 0.7)

	_ = selectDiverse(candidates, 0.5, 2)

	assert.InDelta(t, 0.9, candidates[0].Similarity, 1e-9)
	assert.InDelta(t, 0.8, candidates[1].Similarity, 1e-9)
	assert.InDelta(t, 0.7, candidates[2].Similarity, 1e-9)
}

func TestMarginalDiversity(t *testing.T) {
	cand := Candidate{Similarity: 0.5}

	assert.InDelta(t, 1.0, marginalDiversity(nil, cand), 1e-9)

	selected := candidatesWithScores(0.9, 0.6)
	assert.InDelta(t, 0.4, marginalDiversity(selected, cand), 1e-9)
}
