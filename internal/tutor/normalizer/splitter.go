package normalizer

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidChunkSize = errors.New("chunkSize must be positive")
	ErrInvalidOverlap   = errors.New("overlap must be between 0 and chunkSize")
)

// defaultSeparators is the split priority: paragraph, line, sentence, word,
// character.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter splits text recursively along a separator priority list, bounded
// by a target chunk size with overlap.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter creates a splitter with the given size bound and overlap,
// both measured in characters.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, ErrInvalidOverlap
	}

	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}, nil
}

// Split breaks text into chunks no longer than chunkSize characters,
// preferring paragraph boundaries over lines, sentences, and words.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	units := s.splitRecursive(text, 0)

	var chunks []string
	for _, c := range s.mergeUnits(units) {
		trimmed := strings.TrimSpace(c)
		if trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// splitRecursive cuts text into units no longer than chunkSize, descending
// the separator priority list for any piece that is still too large.
func (s *Splitter) splitRecursive(text string, sepIdx int) []string {
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}

	// Advance to the first separator actually present in the text.
	for sepIdx < len(s.separators)-1 && !strings.Contains(text, s.separators[sepIdx]) {
		sepIdx++
	}
	sep := s.separators[sepIdx]
	if sep == "" {
		return s.hardSplit(text)
	}

	var units []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if runeLen(piece) > s.chunkSize {
			units = append(units, s.splitRecursive(piece, sepIdx+1)...)
		} else {
			units = append(units, piece)
		}
	}
	return units
}

// hardSplit is the character-level fallback for text with no usable
// separators: fixed windows of chunkSize with overlap.
func (s *Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.overlap

	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// mergeUnits greedily packs units into chunks up to chunkSize, carrying a
// tail of up to overlap characters into the next chunk.
func (s *Splitter) mergeUnits(units []string) []string {
	var chunks []string
	var window []string
	total := 0

	for _, u := range units {
		ul := runeLen(u)
		if total+ul > s.chunkSize && total > 0 {
			chunks = append(chunks, strings.Join(window, ""))

			// Evict from the front until the new unit fits and the carried
			// tail is within the overlap budget.
			for total > s.overlap || (total+ul > s.chunkSize && total > 0) {
				total -= runeLen(window[0])
				window = window[1:]
				if len(window) == 0 {
					break
				}
			}
		}
		window = append(window, u)
		total += ul
	}

	if total > 0 {
		chunks = append(chunks, strings.Join(window, ""))
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
