package retriever

import (
	"testing"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

func scoredWithEmbedding(id string, score float64, embedding []float32) *models.ScoredChunk {
	return &models.ScoredChunk{
		Chunk: &models.Chunk{ID: id, Embedding: embedding},
		Score: score,
	}
}

func TestMMRPrefersDiverseCandidates(t *testing.T) {
	// Two near-duplicates lead on relevance; a distinct candidate trails.
	candidates := []*models.ScoredChunk{
		scoredWithEmbedding("dup1", 0.95, []float32{1, 0, 0}),
		scoredWithEmbedding("dup2", 0.94, []float32{1, 0.01, 0}),
		scoredWithEmbedding("distinct", 0.80, []float32{0, 1, 0}),
	}

	selected := maxMarginalRelevance(candidates, 2, 0.5)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Chunk.ID != "dup1" {
		t.Errorf("first pick = %s, want dup1", selected[0].Chunk.ID)
	}
	if selected[1].Chunk.ID != "distinct" {
		t.Errorf("second pick = %s, want distinct (diversity)", selected[1].Chunk.ID)
	}
}

func TestMMRPureRelevance(t *testing.T) {
	candidates := []*models.ScoredChunk{
		scoredWithEmbedding("a", 0.9, []float32{1, 0}),
		scoredWithEmbedding("b", 0.8, []float32{1, 0}),
		scoredWithEmbedding("c", 0.1, []float32{0, 1}),
	}

	selected := maxMarginalRelevance(candidates, 2, 1)
	if selected[0].Chunk.ID != "a" || selected[1].Chunk.ID != "b" {
		t.Errorf("lambda=1 should keep relevance order, got %s, %s",
			selected[0].Chunk.ID, selected[1].Chunk.ID)
	}
}

func TestMMRSmallInput(t *testing.T) {
	candidates := []*models.ScoredChunk{
		scoredWithEmbedding("only", 0.5, []float32{1}),
	}

	if selected := maxMarginalRelevance(candidates, 5, 0.7); len(selected) != 1 {
		t.Errorf("expected passthrough for small input, got %d", len(selected))
	}
	if selected := maxMarginalRelevance(nil, 5, 0.7); selected != nil {
		t.Error("expected nil for empty input")
	}
	if selected := maxMarginalRelevance(candidates, 0, 0.7); selected != nil {
		t.Error("expected nil for k=0")
	}
}
