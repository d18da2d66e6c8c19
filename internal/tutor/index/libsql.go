package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/code-sleuth/eduverse-go/internal/tutor/interfaces"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
)

// LibsqlStore is the default knowledge index, backed by the primary libsql
// database. Embeddings are stored as JSON text and similarity is computed
// in process, which is adequate for per-tenant corpora of a few thousand
// chunks.
type LibsqlStore struct {
	db       *sql.DB
	embedder interfaces.Embedder
	logger   zerolog.Logger
}

// NewLibsqlStore creates a libsql-backed knowledge index with the injected
// embedder.
func NewLibsqlStore(database *sql.DB, embedder interfaces.Embedder) *LibsqlStore {
	return &LibsqlStore{
		db:       database,
		embedder: embedder,
		logger:   util.NewLogger(util.LogLevelFromEnv("INDEX_LOG_LEVEL")),
	}
}

const chunkColumns = `id, tenant_id, source_id, course_id, course_name, content, content_hash,
	embedding, token_count, file_name, source_type, document_type,
	page_number, total_pages, start_time, end_time, contains_visual, parent_content`

// Add embeds and stores chunks. Each insert runs in its own short
// transaction so concurrent indexing jobs never contend on long locks.
func (s *LibsqlStore) Add(ctx context.Context, chunks []*models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, ErrNoChunks
	}

	if err := embedAll(ctx, s.embedder, chunks, embedConcurrencyFromEnv()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to embed chunks")
		return 0, err
	}

	query := `INSERT INTO chunks (` + chunkColumns + `, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stored := 0
	for _, chunk := range chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			s.logger.Error().Err(err).Str("chunk_id", chunk.ID).Msg("Failed to marshal embedding")
			return stored, err
		}

		meta := chunk.Metadata
		_, err = s.db.ExecContext(ctx, query,
			chunk.ID, chunk.TenantID, chunk.SourceID, meta.CourseID, meta.CourseName,
			chunk.Content, chunk.ContentHash, string(embeddingJSON), chunk.TokenCount,
			meta.FileName, meta.SourceType, meta.DocumentType,
			meta.PageNumber, meta.TotalPages, meta.StartTime, meta.EndTime,
			boolToInt(meta.ContainsVisual), meta.ParentContent,
			time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			s.logger.Error().Err(err).Str("chunk_id", chunk.ID).Msg("Failed to insert chunk")
			return stored, err
		}
		stored++
	}

	s.logger.Info().Int("chunks", stored).Str("tenant_id", chunks[0].TenantID).Msg("Added chunks to index")
	return stored, nil
}

// Search embeds the query and returns the k most cosine-similar chunks for
// the tenant, with embeddings populated for downstream diversity selection.
// The course filter is applied in SQL so pool sizing stays meaningful.
func (s *LibsqlStore) Search(
	ctx context.Context,
	tenantID, query string,
	k int,
	courseID *string,
) ([]*models.ScoredChunk, error) {
	if k <= 0 {
		return nil, ErrInvalidLimit
	}

	queryVec, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to embed query")
		return nil, err
	}

	chunks, err := s.loadChunks(ctx, tenantID, courseID, 0)
	if err != nil {
		return nil, err
	}

	scored := make([]*models.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, &models.ScoredChunk{
			Chunk: chunk,
			Score: Cosine(queryVec, chunk.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// AllChunks returns up to limit chunks for the tenant, used to build the
// lexical candidate pool.
func (s *LibsqlStore) AllChunks(
	ctx context.Context,
	tenantID string,
	courseID *string,
	limit int,
) ([]*models.Chunk, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return s.loadChunks(ctx, tenantID, courseID, limit)
}

// DeleteBySource removes every chunk for one source file.
func (s *LibsqlStore) DeleteBySource(ctx context.Context, tenantID, sourceID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE tenant_id = ? AND source_id = ?`, tenantID, sourceID)
	if err != nil {
		s.logger.Error().Err(err).Str("source_id", sourceID).Msg("Failed to delete chunks")
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("deleted", deleted).Str("source_id", sourceID).Msg("Deleted chunks for source")
	return int(deleted), nil
}

// Count returns the number of chunks indexed for the tenant.
func (s *LibsqlStore) Count(ctx context.Context, tenantID string, courseID *string) (int, error) {
	query := `SELECT COUNT(*) FROM chunks WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if courseID != nil {
		query += ` AND course_id = ?`
		args = append(args, *courseID)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to count chunks")
		return 0, err
	}
	return count, nil
}

func (s *LibsqlStore) loadChunks(
	ctx context.Context,
	tenantID string,
	courseID *string,
	limit int,
) ([]*models.Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if courseID != nil {
		query += ` AND course_id = ?`
		args = append(args, *courseID)
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to load chunks")
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to scan chunk")
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

func scanChunk(rows *sql.Rows) (*models.Chunk, error) {
	var chunk models.Chunk
	var courseID, courseName sql.NullString
	var embeddingJSON string
	var pageNumber, totalPages sql.NullInt64
	var startTime, endTime sql.NullFloat64
	var containsVisual int

	err := rows.Scan(
		&chunk.ID, &chunk.TenantID, &chunk.SourceID, &courseID, &courseName,
		&chunk.Content, &chunk.ContentHash, &embeddingJSON, &chunk.TokenCount,
		&chunk.Metadata.FileName, &chunk.Metadata.SourceType, &chunk.Metadata.DocumentType,
		&pageNumber, &totalPages, &startTime, &endTime, &containsVisual,
		&chunk.Metadata.ParentContent,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
		return nil, err
	}

	chunk.Metadata.SourceID = chunk.SourceID
	if courseID.Valid {
		chunk.Metadata.CourseID = &courseID.String
	}
	if courseName.Valid {
		chunk.Metadata.CourseName = &courseName.String
	}
	if pageNumber.Valid {
		page := int(pageNumber.Int64)
		chunk.Metadata.PageNumber = &page
	}
	if totalPages.Valid {
		total := int(totalPages.Int64)
		chunk.Metadata.TotalPages = &total
	}
	if startTime.Valid {
		chunk.Metadata.StartTime = &startTime.Float64
	}
	if endTime.Valid {
		chunk.Metadata.EndTime = &endTime.Float64
	}
	chunk.Metadata.ContainsVisual = containsVisual != 0

	return &chunk, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
