package extractors

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

func writeTempHTML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestHTMLExtractor(t *testing.T) {
	path := writeTempHTML(t, `<html><body>
		<h1>Thermodynamics</h1>
		<p>Entropy measures <strong>disorder</strong>.</p>
		<script>console.log("ignored")</script>
	</body></html>`)

	extractor := NewHTMLExtractor()
	meta := models.DocumentMetadata{SourceID: "file-1", FileName: "page.html"}

	docs, err := extractor.Extract(context.Background(), path, meta)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}

	doc := docs[0]
	if !strings.Contains(doc.Text, "# Thermodynamics") {
		t.Errorf("heading not converted to markdown: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "**disorder**") {
		t.Errorf("bold not converted to markdown: %q", doc.Text)
	}
	if doc.Metadata.SourceType != models.SourceTypeHTML {
		t.Errorf("source type = %s, want html", doc.Metadata.SourceType)
	}
	if doc.Metadata.SourceID != "file-1" {
		t.Errorf("source id = %s", doc.Metadata.SourceID)
	}
}

func TestHTMLExtractorEmptyPage(t *testing.T) {
	path := writeTempHTML(t, `<html><body></body></html>`)

	extractor := NewHTMLExtractor()
	docs, err := extractor.Extract(context.Background(), path, models.DocumentMetadata{FileName: "empty.html"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("documents = %d, want 0 for empty page", len(docs))
	}
}

func TestHTMLExtractorMissingFile(t *testing.T) {
	extractor := NewHTMLExtractor()
	_, err := extractor.Extract(context.Background(), "/nonexistent/page.html", models.DocumentMetadata{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPDFExtractorMissingFile(t *testing.T) {
	extractor := NewPDFExtractor()
	_, err := extractor.Extract(context.Background(), "/nonexistent/doc.pdf", models.DocumentMetadata{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExtractorSourceTypes(t *testing.T) {
	if got := NewPDFExtractor().SourceType(); got != models.SourceTypePDF {
		t.Errorf("PDF extractor source type = %s", got)
	}
	if got := NewHTMLExtractor().SourceType(); got != models.SourceTypeHTML {
		t.Errorf("HTML extractor source type = %s", got)
	}
}
