package embedders

import (
	"context"
	"math"
	"testing"
)

func TestNewHashEmbedder(t *testing.T) {
	tests := []struct {
		name        string
		dimension   int
		expectError bool
	}{
		{name: "valid dimension", dimension: 128, expectError: false},
		{name: "zero dimension", dimension: 0, expectError: true},
		{name: "negative dimension", dimension: -8, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewHashEmbedder(tt.dimension)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.Dimension() != tt.dimension {
				t.Errorf("expected dimension %d, got %d", tt.dimension, e.Dimension())
			}
		})
	}
}

func TestHashEmbedder_GenerateEmbedding(t *testing.T) {
	e := NewDefaultHashEmbedder()
	ctx := context.Background()

	if _, err := e.GenerateEmbedding(ctx, ""); err != ErrContentEmpty {
		t.Errorf("expected ErrContentEmpty for empty content, got %v", err)
	}

	first, err := e.GenerateEmbedding(ctx, "The mitochondria is the powerhouse of the cell")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != e.Dimension() {
		t.Fatalf("expected %d dimensions, got %d", e.Dimension(), len(first))
	}

	// Deterministic for identical input.
	second, err := e.GenerateEmbedding(ctx, "The mitochondria is the powerhouse of the cell")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("embedding not deterministic at index %d", i)
		}
	}

	// L2 normalized.
	var norm float64
	for _, v := range first {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("expected unit norm, got %f", norm)
	}

	// Related texts score closer than unrelated ones.
	related, _ := e.GenerateEmbedding(ctx, "the cell contains mitochondria")
	unrelated, _ := e.GenerateEmbedding(ctx, "quarterly revenue grew seven percent")

	if dot(first, related) <= dot(first, unrelated) {
		t.Error("expected related text to be more similar than unrelated text")
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
