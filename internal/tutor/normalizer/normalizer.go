// Package normalizer turns extracted SourceDocuments into fixed-size,
// metadata-tagged chunks with contextual prefixes.
package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tiktoken-go/tokenizer"
)

const (
	chunkSizeDefault    = 500
	chunkOverlapDefault = 100
	parentContentLength = 800
)

// Normalizer splits documents into contextually enriched chunks conforming
// to the fixed chunk metadata schema.
type Normalizer struct {
	splitter *Splitter
	encoding tokenizer.Codec
	logger   zerolog.Logger
}

// New creates a normalizer using the chunk size and overlap from the
// environment (EDUVERSE_CHUNK_SIZE, EDUVERSE_CHUNK_OVERLAP) or defaults.
func New() (*Normalizer, error) {
	return NewWithSize(
		getIntFromEnv("EDUVERSE_CHUNK_SIZE", chunkSizeDefault),
		getIntFromEnv("EDUVERSE_CHUNK_OVERLAP", chunkOverlapDefault),
	)
}

// NewWithSize creates a normalizer with explicit chunk bounds.
func NewWithSize(chunkSize, overlap int) (*Normalizer, error) {
	logger := util.NewLogger(util.LogLevelFromEnv("NORMALIZER_LOG_LEVEL"))

	splitter, err := NewSplitter(chunkSize, overlap)
	if err != nil {
		logger.Error().Err(err).Msg("invalid splitter configuration")
		return nil, err
	}

	encoding, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		logger.Error().Err(err).Msg("failed to get tokenizer")
		return nil, err
	}

	return &Normalizer{
		splitter: splitter,
		encoding: encoding,
		logger:   logger,
	}, nil
}

// Chunk splits documents into chunks. Each chunk carries a context prefix
// describing provenance, a parent excerpt of the original content, and
// metadata conforming to one fixed schema regardless of source type.
func (n *Normalizer) Chunk(tenantID string, docs []*models.SourceDocument) []*models.Chunk {
	if len(docs) == 0 {
		return nil
	}

	var chunks []*models.Chunk
	for _, doc := range docs {
		prefix := buildPrefix(doc.Metadata)
		parent := truncateRunes(doc.Text, parentContentLength)
		docType := DetectDocType(doc.Metadata.FileName)

		for _, split := range n.splitter.Split(doc.Text) {
			content := prefix + split
			chunks = append(chunks, &models.Chunk{
				ID:          uuid.New().String(),
				TenantID:    tenantID,
				SourceID:    doc.Metadata.SourceID,
				Content:     content,
				ContentHash: HashContent(content),
				TokenCount:  n.countTokens(content),
				Metadata: models.ChunkMetadata{
					DocumentMetadata: doc.Metadata,
					DocumentType:     docType,
					ParentContent:    parent,
				},
			})
		}
	}

	n.logger.Info().
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Msg("Normalized documents into chunks")
	return chunks
}

func (n *Normalizer) countTokens(text string) int {
	tokens, _, err := n.encoding.Encode(text)
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to tokenize chunk content")
		return 0
	}
	return len(tokens)
}

// buildPrefix builds a provenance prefix like "[From LAB 1.pdf, page 2] "
// or "[From lecture.mp4, 30s-60s] ".
func buildPrefix(meta models.DocumentMetadata) string {
	locator := meta.FileName
	switch {
	case meta.PageNumber != nil:
		locator = fmt.Sprintf("%s, page %d", locator, *meta.PageNumber)
	case meta.StartTime != nil && meta.EndTime != nil:
		locator = fmt.Sprintf("%s, %.0fs-%.0fs", locator, *meta.StartTime, *meta.EndTime)
	case meta.StartTime != nil:
		locator = fmt.Sprintf("%s, %.0fs", locator, *meta.StartTime)
	}
	return fmt.Sprintf("[From %s] ", locator)
}

// DetectDocType classifies a document from filename keywords. Heuristic and
// best-effort only.
func DetectDocType(fileName string) string {
	name := strings.ToLower(fileName)
	switch {
	case containsAny(name, "lab", "practical"):
		return models.DocTypeLab
	case containsAny(name, "assign", "homework", "hw"):
		return models.DocTypeAssignment
	case containsAny(name, "quiz", "exam", "test", "midterm", "final"):
		return models.DocTypeExam
	case containsAny(name, "lect", "slide", "note", "chapter"):
		return models.DocTypeLecture
	default:
		return models.DocTypeDocument
	}
}

// HashContent returns the hex SHA-256 of content, used for exact-content
// deduplication during retrieval.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func getIntFromEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}
