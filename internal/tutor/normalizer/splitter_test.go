package normalizer

import (
	"strings"
	"testing"
)

func TestNewSplitter(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		expectErr error
	}{
		{name: "valid", chunkSize: 500, overlap: 100},
		{name: "zero chunk size", chunkSize: 0, overlap: 0, expectErr: ErrInvalidChunkSize},
		{name: "negative chunk size", chunkSize: -5, overlap: 0, expectErr: ErrInvalidChunkSize},
		{name: "negative overlap", chunkSize: 100, overlap: -1, expectErr: ErrInvalidOverlap},
		{name: "overlap equals chunk size", chunkSize: 100, overlap: 100, expectErr: ErrInvalidOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.chunkSize, tt.overlap)
			if tt.expectErr != nil {
				if err != tt.expectErr {
					t.Fatalf("expected %v, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSplitter_Split(t *testing.T) {
	tests := []struct {
		name        string
		chunkSize   int
		overlap     int
		text        string
		expectCount int
		singleChunk bool
	}{
		{
			name:        "empty text",
			chunkSize:   100,
			overlap:     20,
			text:        "",
			expectCount: 0,
		},
		{
			name:        "whitespace only",
			chunkSize:   100,
			overlap:     20,
			text:        "   \n\n  ",
			expectCount: 0,
		},
		{
			name:        "short text fits in one chunk",
			chunkSize:   100,
			overlap:     20,
			text:        "A short paragraph that fits.",
			singleChunk: true,
		},
		{
			name:      "paragraphs split on blank lines",
			chunkSize: 60,
			overlap:   10,
			text: "First paragraph with some words in it.\n\n" +
				"Second paragraph with other words in it.\n\n" +
				"Third paragraph closing the document.",
		},
		{
			name:      "unbroken text falls back to character windows",
			chunkSize: 50,
			overlap:   10,
			text:      strings.Repeat("x", 200),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSplitter(tt.chunkSize, tt.overlap)
			if err != nil {
				t.Fatalf("failed to create splitter: %v", err)
			}

			chunks := s.Split(tt.text)

			if strings.TrimSpace(tt.text) == "" {
				if len(chunks) != 0 {
					t.Fatalf("expected no chunks, got %d", len(chunks))
				}
				return
			}
			if tt.singleChunk && len(chunks) != 1 {
				t.Fatalf("expected single chunk, got %d", len(chunks))
			}
			if len(chunks) == 0 {
				t.Fatal("expected at least one chunk")
			}

			for i, c := range chunks {
				if runeLen(c) > tt.chunkSize {
					t.Errorf("chunk %d exceeds size bound: %d > %d", i, runeLen(c), tt.chunkSize)
				}
				if strings.TrimSpace(c) == "" {
					t.Errorf("chunk %d is blank", i)
				}
			}
		})
	}
}

func TestSplitter_Overlap(t *testing.T) {
	s, err := NewSplitter(50, 10)
	if err != nil {
		t.Fatalf("failed to create splitter: %v", err)
	}

	text := strings.Repeat("y", 200)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Character fallback advances by chunkSize-overlap, so adjacent chunks
	// share a 10-character suffix/prefix.
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-10:]
		if !strings.HasPrefix(chunks[i], prevTail) {
			t.Errorf("chunk %d does not carry the overlap from chunk %d", i, i-1)
		}
	}
}

func TestSplitter_PreservesContent(t *testing.T) {
	s, err := NewSplitter(40, 0)
	if err != nil {
		t.Fatalf("failed to create splitter: %v", err)
	}

	text := "Photosynthesis converts light energy. Chlorophyll absorbs blue light. " +
		"The Calvin cycle fixes carbon dioxide into sugar molecules."
	chunks := s.Split(text)

	joined := strings.Join(chunks, " ")
	for _, word := range []string{"Photosynthesis", "Chlorophyll", "Calvin", "sugar"} {
		if !strings.Contains(joined, word) {
			t.Errorf("expected word %q to survive splitting", word)
		}
	}
}
