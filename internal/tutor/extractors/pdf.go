// Package extractors converts downloaded files into SourceDocuments tagged
// with the fixed provenance schema.
package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// PDFExtractor produces one document per page with plain text content.
// Pages with no extractable text are skipped, so image-only PDFs yield zero
// documents and the pipeline fails the job with a clear reason.
type PDFExtractor struct {
	logger zerolog.Logger
}

// NewPDFExtractor creates the PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		logger: util.NewLogger(util.LogLevelFromEnv("EXTRACTOR_LOG_LEVEL")),
	}
}

// Extract reads the PDF at path and returns one document per non-empty page.
func (e *PDFExtractor) Extract(
	ctx context.Context,
	path string,
	meta models.DocumentMetadata,
) ([]*models.SourceDocument, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		e.logger.Error().Err(err).Str("path", path).Msg("Failed to open PDF")
		return nil, fmt.Errorf("%w: %v", ErrFileOpenFailed, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			e.logger.Error().Err(err).Msg("Failed to close PDF file")
		}
	}()

	totalPages := reader.NumPage()
	docs := make([]*models.SourceDocument, 0, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn().Err(err).Int("page", pageNum).Str("path", path).Msg("Skipping unreadable page")
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pageMeta := meta
		pageMeta.SourceType = models.SourceTypePDF
		num := pageNum
		total := totalPages
		pageMeta.PageNumber = &num
		pageMeta.TotalPages = &total

		docs = append(docs, &models.SourceDocument{Text: text, Metadata: pageMeta})
	}

	e.logger.Info().
		Str("file_name", meta.FileName).
		Int("pages", totalPages).
		Int("documents", len(docs)).
		Msg("Extracted PDF")
	return docs, nil
}

// SourceType returns the detected type this extractor handles.
func (e *PDFExtractor) SourceType() string {
	return models.SourceTypePDF
}
