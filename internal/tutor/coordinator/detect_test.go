package coordinator

import (
	"errors"
	"testing"
)

func TestDetectSourceType(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		fileName string
		expected string
	}{
		{"pdf mime", "application/pdf", "notes", "pdf"},
		{"video mime", "video/mp4", "lecture", "video"},
		{"audio mime", "audio/mpeg", "recording", "audio"},
		{"image mime", "image/png", "diagram", "image"},
		{"html mime", "text/html", "page", "html"},
		{"pdf extension fallback", "", "syllabus.PDF", "pdf"},
		{"video extension fallback", "application/octet-stream", "lecture1.mkv", "video"},
		{"audio extension fallback", "", "podcast.m4a", "audio"},
		{"image extension fallback", "", "figure.webp", "image"},
		{"html extension fallback", "", "index.htm", "html"},
		{"mime wins over extension", "application/pdf", "mislabeled.mp3", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := detectSourceType(tt.mimeType, tt.fileName)
			if err != nil {
				t.Fatalf("detectSourceType() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("detectSourceType(%q, %q) = %q, want %q", tt.mimeType, tt.fileName, got, tt.expected)
			}
		})
	}
}

func TestDetectSourceTypeUnsupported(t *testing.T) {
	_, err := detectSourceType("application/zip", "archive.zip")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("expected ErrUnsupportedFileType, got %v", err)
	}
}
