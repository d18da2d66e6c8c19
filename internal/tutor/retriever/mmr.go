package retriever

import (
	"github.com/code-sleuth/eduverse-go/internal/tutor/index"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

// maxMarginalRelevance greedily picks k candidates balancing relevance to
// the query against similarity to chunks already picked. lambda=1 is pure
// relevance, lambda=0 is pure diversity. Candidates must arrive sorted by
// relevance and carry embeddings.
func maxMarginalRelevance(candidates []*models.ScoredChunk, k int, lambda float64) []*models.ScoredChunk {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if len(candidates) <= k {
		return candidates
	}

	selected := make([]*models.ScoredChunk, 0, k)
	remaining := make([]*models.ScoredChunk, len(candidates))
	copy(remaining, candidates)

	// The most relevant candidate always goes first.
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := -2.0
		for i, candidate := range remaining {
			maxSim := 0.0
			for _, picked := range selected {
				sim := index.Cosine(candidate.Chunk.Embedding, picked.Chunk.Embedding)
				if sim > maxSim {
					maxSim = sim
				}
			}
			mmr := lambda*candidate.Score - (1-lambda)*maxSim
			if mmr > bestScore {
				bestScore = mmr
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}
