package embedders

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const hashDimensionDefault = 256

// HashEmbedder is a deterministic, fully local embedder that projects term
// frequencies into a fixed-size vector by feature hashing. It needs no API
// key or network access, which makes it the embedder of choice for tests
// and offline runs. Not a substitute for a learned model in production.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a hash embedder with the given vector dimension.
func NewHashEmbedder(dimension int) (*HashEmbedder, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	return &HashEmbedder{dimension: dimension}, nil
}

// NewDefaultHashEmbedder creates a hash embedder with the default dimension.
func NewDefaultHashEmbedder() *HashEmbedder {
	return &HashEmbedder{dimension: hashDimensionDefault}
}

// GenerateEmbedding creates an L2-normalized term-frequency vector.
func (h *HashEmbedder) GenerateEmbedding(_ context.Context, content string) ([]float32, error) {
	if content == "" {
		return nil, ErrContentEmpty
	}

	vec := make([]float32, h.dimension)
	for _, term := range tokenizeTerms(content) {
		hasher := fnv.New32a()
		hasher.Write([]byte(term))
		sum := hasher.Sum32()

		idx := int(sum % uint32(h.dimension))
		// Top hash bit picks the sign so collisions cancel rather than pile up.
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}

	return vec, nil
}

// ModelName returns the name of the embedding model.
func (h *HashEmbedder) ModelName() string {
	return "feature-hash"
}

// Dimension returns the dimension of the embedding vectors.
func (h *HashEmbedder) Dimension() int {
	return h.dimension
}

// tokenizeTerms lowercases and splits content on non-alphanumeric runes.
func tokenizeTerms(content string) []string {
	return strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
