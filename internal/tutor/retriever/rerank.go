package retriever

import (
	"sort"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

// OverlapReranker rescores candidates by lexical overlap with the query:
// the fraction of distinct query terms each chunk contains, weighted by
// term frequency saturation. It is deterministic and fully local, standing
// in for a learned cross-encoder.
type OverlapReranker struct{}

// NewOverlapReranker creates the default reranker.
func NewOverlapReranker() *OverlapReranker {
	return &OverlapReranker{}
}

// Rerank rescores candidates and returns the top n. The original fused
// score is kept as a tiebreaker so equally-overlapping chunks preserve
// their upstream ordering.
func (r *OverlapReranker) Rerank(query string, candidates []*models.ScoredChunk, topN int) []*models.ScoredChunk {
	if len(candidates) == 0 || topN <= 0 {
		return nil
	}

	queryTerms := map[string]bool{}
	for _, term := range tokenize(query) {
		queryTerms[term] = true
	}
	if len(queryTerms) == 0 {
		if len(candidates) > topN {
			return candidates[:topN]
		}
		return candidates
	}

	type reranked struct {
		chunk    *models.ScoredChunk
		score    float64
		upstream float64
	}

	results := make([]reranked, 0, len(candidates))
	for _, candidate := range candidates {
		counts := map[string]int{}
		for _, term := range tokenize(candidate.Chunk.Content) {
			if queryTerms[term] {
				counts[term]++
			}
		}
		var score float64
		for _, tf := range counts {
			// Saturating term frequency so one repeated word cannot dominate.
			score += float64(tf) / (float64(tf) + 1)
		}
		score /= float64(len(queryTerms))
		results = append(results, reranked{chunk: candidate, score: score, upstream: candidate.Score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		if results[i].upstream != results[j].upstream {
			return results[i].upstream > results[j].upstream
		}
		return results[i].chunk.Chunk.ID < results[j].chunk.Chunk.ID
	})

	if len(results) > topN {
		results = results[:topN]
	}

	out := make([]*models.ScoredChunk, len(results))
	for i, res := range results {
		out[i] = &models.ScoredChunk{Chunk: res.chunk.Chunk, Score: res.score}
	}
	return out
}
