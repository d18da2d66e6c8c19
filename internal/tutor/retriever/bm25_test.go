package retriever

import (
	"testing"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

func TestBM25RanksExactTermsFirst(t *testing.T) {
	corpus := newBM25Corpus([]*models.Chunk{
		testChunk("a", "t", "the quick brown fox jumps over the lazy dog"),
		testChunk("b", "t", "binary search trees support logarithmic lookup"),
		testChunk("c", "t", "binary search halves the interval each step, binary search is fast"),
	})

	results := corpus.search("binary search", 3)
	if len(results) != 2 {
		t.Fatalf("expected 2 matching docs, got %d", len(results))
	}
	if results[0].Chunk.ID != "c" {
		t.Errorf("top result = %s, want c (highest term frequency)", results[0].Chunk.ID)
	}
	if results[1].Chunk.ID != "b" {
		t.Errorf("second result = %s, want b", results[1].Chunk.ID)
	}
}

func TestBM25NoMatches(t *testing.T) {
	corpus := newBM25Corpus([]*models.Chunk{
		testChunk("a", "t", "photosynthesis in plants"),
	})

	if results := corpus.search("quantum entanglement", 5); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBM25EmptyInputs(t *testing.T) {
	if results := newBM25Corpus(nil).search("anything", 5); len(results) != 0 {
		t.Errorf("expected no results from empty corpus, got %d", len(results))
	}

	corpus := newBM25Corpus([]*models.Chunk{testChunk("a", "t", "some content")})
	if results := corpus.search("", 5); len(results) != 0 {
		t.Errorf("expected no results for empty query, got %d", len(results))
	}
}

func TestBM25LimitsResults(t *testing.T) {
	corpus := newBM25Corpus([]*models.Chunk{
		testChunk("a", "t", "graph theory basics"),
		testChunk("b", "t", "graph coloring problems"),
		testChunk("c", "t", "graph traversal methods"),
	})

	if results := corpus.search("graph", 2); len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}
