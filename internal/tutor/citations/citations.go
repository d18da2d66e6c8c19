// Package citations maps bracketed numeric references in a generated answer
// back to the retrieved chunks that produced it.
package citations

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

// SnippetLength bounds the excerpt carried on each citation.
const SnippetLength = 200

var refPattern = regexp.MustCompile(`\[(\d+)\]`)

// Extract scans the answer for [N] references and resolves each unique
// in-range reference against the retrieved set. Numbering is positional and
// 1-indexed over the retrieved set. References beyond the pool are dropped;
// an answer with no references yields an empty list.
func Extract(answer string, retrieved []*models.ScoredChunk) []models.Citation {
	if answer == "" || len(retrieved) == 0 {
		return nil
	}

	matches := refPattern.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return nil
	}

	// Deduplicate while preserving order of first appearance.
	seen := make(map[int]bool)
	var unique []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}
	sort.Ints(unique)

	var citations []models.Citation
	for _, n := range unique {
		idx := n - 1
		if idx < 0 || idx >= len(retrieved) {
			continue
		}
		citations = append(citations, FromChunk(n, retrieved[idx].Chunk))
	}

	return citations
}

// FromChunk builds a citation for the chunk at the given 1-indexed position.
func FromChunk(number int, chunk *models.Chunk) models.Citation {
	return models.Citation{
		Number:     number,
		SourceID:   chunk.SourceID,
		FileName:   chunk.Metadata.FileName,
		SourceType: chunk.Metadata.SourceType,
		PageNumber: chunk.Metadata.PageNumber,
		StartTime:  chunk.Metadata.StartTime,
		EndTime:    chunk.Metadata.EndTime,
		Snippet:    Snippet(chunk.Content),
	}
}

// Snippet returns the first SnippetLength characters of content.
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLength {
		return content
	}
	return string(runes[:SnippetLength])
}
