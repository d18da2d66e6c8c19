package retriever

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// bm25Corpus holds term statistics for one lexical scoring pass. It is
// rebuilt per query over the capped candidate pool, which keeps scores
// consistent with whatever is currently indexed.
type bm25Corpus struct {
	chunks    []*models.Chunk
	docTerms  []map[string]int
	docLens   []int
	avgDocLen float64
	docFreq   map[string]int
}

func newBM25Corpus(chunks []*models.Chunk) *bm25Corpus {
	corpus := &bm25Corpus{
		chunks:   chunks,
		docTerms: make([]map[string]int, len(chunks)),
		docLens:  make([]int, len(chunks)),
		docFreq:  make(map[string]int),
	}

	totalLen := 0
	for i, chunk := range chunks {
		terms := tokenize(chunk.Content)
		counts := make(map[string]int, len(terms))
		for _, term := range terms {
			counts[term]++
		}
		corpus.docTerms[i] = counts
		corpus.docLens[i] = len(terms)
		totalLen += len(terms)

		for term := range counts {
			corpus.docFreq[term]++
		}
	}
	if len(chunks) > 0 {
		corpus.avgDocLen = float64(totalLen) / float64(len(chunks))
	}

	return corpus
}

// search scores every document against the query with Okapi BM25 and
// returns the top k with a positive score, ordered best first. Ties break
// on chunk ID so results are stable across runs.
func (c *bm25Corpus) search(query string, k int) []*models.ScoredChunk {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 || len(c.chunks) == 0 {
		return nil
	}

	n := float64(len(c.chunks))
	scored := make([]*models.ScoredChunk, 0, len(c.chunks))
	for i, chunk := range c.chunks {
		var score float64
		for _, term := range queryTerms {
			tf := float64(c.docTerms[i][term])
			if tf == 0 {
				continue
			}
			df := float64(c.docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := bm25K1 * (1 - bm25B + bm25B*float64(c.docLens[i])/c.avgDocLen)
			score += idf * tf * (bm25K1 + 1) / (tf + norm)
		}
		if score > 0 {
			scored = append(scored, &models.ScoredChunk{Chunk: chunk, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
