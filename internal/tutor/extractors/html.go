package extractors

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/rs/zerolog"
)

// HTMLExtractor converts an HTML file to markdown and yields one document.
type HTMLExtractor struct {
	converter *md.Converter
	logger    zerolog.Logger
}

// NewHTMLExtractor creates the HTML extractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{
		converter: md.NewConverter("", true, nil),
		logger:    util.NewLogger(util.LogLevelFromEnv("EXTRACTOR_LOG_LEVEL")),
	}
}

// Extract reads the HTML file at path and returns its markdown rendition as
// a single document, or none when the page has no textual content.
func (e *HTMLExtractor) Extract(
	_ context.Context,
	path string,
	meta models.DocumentMetadata,
) ([]*models.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Error().Err(err).Str("path", path).Msg("Failed to read HTML file")
		return nil, fmt.Errorf("%w: %v", ErrFileOpenFailed, err)
	}

	markdown, err := e.converter.ConvertString(string(data))
	if err != nil {
		e.logger.Error().Err(err).Str("path", path).Msg("Failed to convert HTML to markdown")
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		e.logger.Warn().Str("file_name", meta.FileName).Msg("HTML file has no textual content")
		return nil, nil
	}

	docMeta := meta
	docMeta.SourceType = models.SourceTypeHTML

	e.logger.Info().Str("file_name", meta.FileName).Msg("Extracted HTML")
	return []*models.SourceDocument{{Text: markdown, Metadata: docMeta}}, nil
}

// SourceType returns the detected type this extractor handles.
func (e *HTMLExtractor) SourceType() string {
	return models.SourceTypeHTML
}
