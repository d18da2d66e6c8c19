package normalizer

import (
	"strings"
	"testing"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestNormalizer_Chunk(t *testing.T) {
	n, err := NewWithSize(120, 20)
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}

	docs := []*models.SourceDocument{
		{
			Text: "Cell membranes regulate transport. Osmosis moves water across the membrane. " +
				"Active transport requires energy from ATP to move molecules against a gradient.",
			Metadata: models.DocumentMetadata{
				SourceType: models.SourceTypePDF,
				SourceID:   "file-1",
				FileName:   "Lecture 3 - Membranes.pdf",
				PageNumber: intPtr(2),
				TotalPages: intPtr(10),
			},
		},
		{
			Text: "Today we cover the electron transport chain and how protons drive ATP synthase.",
			Metadata: models.DocumentMetadata{
				SourceType:     models.SourceTypeVideo,
				SourceID:       "file-2",
				FileName:       "biology_week4.mp4",
				StartTime:      floatPtr(30),
				EndTime:        floatPtr(60),
				ContainsVisual: true,
			},
		},
	}

	chunks := n.Chunk("tenant-1", docs)
	if len(chunks) == 0 {
		t.Fatal("expected chunks, got none")
	}

	for i, c := range chunks {
		if c.ID == "" {
			t.Errorf("chunk %d: missing id", i)
		}
		if c.TenantID != "tenant-1" {
			t.Errorf("chunk %d: wrong tenant id %q", i, c.TenantID)
		}
		if c.ContentHash != HashContent(c.Content) {
			t.Errorf("chunk %d: content hash mismatch", i)
		}
		if c.TokenCount <= 0 {
			t.Errorf("chunk %d: expected positive token count", i)
		}
		if c.Metadata.ParentContent == "" {
			t.Errorf("chunk %d: missing parent content", i)
		}
		if !strings.HasPrefix(c.Content, "[From ") {
			t.Errorf("chunk %d: missing context prefix: %q", i, c.Content)
		}
	}

	// Page-located chunks carry the page in the prefix; time-located chunks
	// carry the time range.
	var sawPage, sawTime bool
	for _, c := range chunks {
		if strings.HasPrefix(c.Content, "[From Lecture 3 - Membranes.pdf, page 2] ") {
			sawPage = true
			if c.Metadata.DocumentType != models.DocTypeLecture {
				t.Errorf("expected lecture doc type, got %q", c.Metadata.DocumentType)
			}
		}
		if strings.HasPrefix(c.Content, "[From biology_week4.mp4, 30s-60s] ") {
			sawTime = true
			if !c.Metadata.ContainsVisual {
				t.Error("expected contains_visual carried onto video chunk")
			}
		}
	}
	if !sawPage {
		t.Error("no chunk carried the page-number prefix")
	}
	if !sawTime {
		t.Error("no chunk carried the time-range prefix")
	}
}

func TestNormalizer_Chunk_EmptyInput(t *testing.T) {
	n, err := NewWithSize(100, 10)
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}

	if chunks := n.Chunk("tenant-1", nil); chunks != nil {
		t.Errorf("expected nil chunks for empty input, got %d", len(chunks))
	}

	blank := []*models.SourceDocument{{
		Text:     "   ",
		Metadata: models.DocumentMetadata{SourceID: "f", FileName: "blank.pdf"},
	}}
	if chunks := n.Chunk("tenant-1", blank); len(chunks) != 0 {
		t.Errorf("expected zero chunks for blank document, got %d", len(chunks))
	}
}

func TestNormalizer_ParentContentTruncation(t *testing.T) {
	n, err := NewWithSize(100, 10)
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}

	docs := []*models.SourceDocument{{
		Text: strings.Repeat("long text ", 200),
		Metadata: models.DocumentMetadata{
			SourceType: models.SourceTypePDF,
			SourceID:   "file-1",
			FileName:   "notes.pdf",
		},
	}}

	chunks := n.Chunk("tenant-1", docs)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, c := range chunks {
		if got := len([]rune(c.Metadata.ParentContent)); got > parentContentLength {
			t.Errorf("parent content exceeds %d chars: %d", parentContentLength, got)
		}
	}
}

func TestDetectDocType(t *testing.T) {
	tests := []struct {
		fileName string
		expect   string
	}{
		{"LAB 1.pdf", models.DocTypeLab},
		{"practical_session.pdf", models.DocTypeLab},
		{"Assignment 2.docx", models.DocTypeAssignment},
		{"hw3.pdf", models.DocTypeAssignment},
		{"Midterm Review.pdf", models.DocTypeExam},
		{"final_exam_2024.pdf", models.DocTypeExam},
		{"Lecture 5 - Genetics.pdf", models.DocTypeLecture},
		{"chapter12_slides.pptx", models.DocTypeLecture},
		{"random_recording.mp3", models.DocTypeDocument},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			if got := DetectDocType(tt.fileName); got != tt.expect {
				t.Errorf("DetectDocType(%q) = %q, want %q", tt.fileName, got, tt.expect)
			}
		})
	}
}
