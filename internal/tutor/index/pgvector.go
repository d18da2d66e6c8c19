package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/code-sleuth/eduverse-go/internal/tutor/interfaces"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"
)

// PgvectorStore is an alternative knowledge index backed by Postgres with
// the pgvector extension. Similarity ordering happens in the database via
// the cosine-distance operator, so it scales past the in-process store.
// Enabled with EDUVERSE_INDEX_BACKEND=pgvector.
type PgvectorStore struct {
	db       *sql.DB
	embedder interfaces.Embedder
	logger   zerolog.Logger
}

// NewPgvectorStore creates a pgvector-backed knowledge index.
func NewPgvectorStore(database *sql.DB, embedder interfaces.Embedder) *PgvectorStore {
	return &PgvectorStore{
		db:       database,
		embedder: embedder,
		logger:   util.NewLogger(util.LogLevelFromEnv("INDEX_LOG_LEVEL")),
	}
}

// Add embeds and stores chunks, one short insert per chunk.
func (s *PgvectorStore) Add(ctx context.Context, chunks []*models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, ErrNoChunks
	}

	if err := embedAll(ctx, s.embedder, chunks, embedConcurrencyFromEnv()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to embed chunks")
		return 0, err
	}

	query := `
		INSERT INTO chunks (id, tenant_id, source_id, course_id, course_name, content, content_hash,
			embedding, token_count, file_name, source_type, document_type,
			page_number, total_pages, start_time, end_time, contains_visual, parent_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	stored := 0
	for _, chunk := range chunks {
		meta := chunk.Metadata
		_, err := s.db.ExecContext(ctx, query,
			chunk.ID, chunk.TenantID, chunk.SourceID, meta.CourseID, meta.CourseName,
			chunk.Content, chunk.ContentHash, pgvector.NewVector(chunk.Embedding), chunk.TokenCount,
			meta.FileName, meta.SourceType, meta.DocumentType,
			meta.PageNumber, meta.TotalPages, meta.StartTime, meta.EndTime,
			meta.ContainsVisual, meta.ParentContent, time.Now().UTC(),
		)
		if err != nil {
			s.logger.Error().Err(err).Str("chunk_id", chunk.ID).Msg("Failed to insert chunk")
			return stored, fmt.Errorf("failed to insert chunk: %w", err)
		}
		stored++
	}

	s.logger.Info().Int("chunks", stored).Str("tenant_id", chunks[0].TenantID).Msg("Added chunks to index")
	return stored, nil
}

// Search embeds the query and lets Postgres order by cosine distance. The
// reported score is 1 - distance so higher still means more similar.
func (s *PgvectorStore) Search(
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
	vec := pgvector.NewVector(queryVec)

	sqlQuery := `
		SELECT id, tenant_id, source_id, course_id, course_name, content, content_hash,
			embedding, token_count, file_name, source_type, document_type,
			page_number, total_pages, start_time, end_time, contains_visual, parent_content,
			1 - (embedding <=> $2) AS score
		FROM chunks
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID, vec}
	if courseID != nil {
		sqlQuery += ` AND course_id = $3 ORDER BY embedding <=> $2 LIMIT $4`
		args = append(args, *courseID, k)
	} else {
		sqlQuery += ` ORDER BY embedding <=> $2 LIMIT $3`
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to execute search query")
		return nil, fmt.Errorf("failed to execute search query: %w", err)
	}
	defer rows.Close()

	var results []*models.ScoredChunk
	for rows.Next() {
		scored, err := scanPgChunk(rows)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to scan chunk")
			return nil, err
		}
		results = append(results, scored)
	}

	return results, rows.Err()
}

// AllChunks returns up to limit chunks for the tenant.
func (s *PgvectorStore) AllChunks(
	ctx context.Context,
	tenantID string,
	courseID *string,
	limit int,
) ([]*models.Chunk, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	sqlQuery := `
		SELECT id, tenant_id, source_id, course_id, course_name, content, content_hash,
			embedding, token_count, file_name, source_type, document_type,
			page_number, total_pages, start_time, end_time, contains_visual, parent_content,
			0 AS score
		FROM chunks
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}
	if courseID != nil {
		sqlQuery += ` AND course_id = $2 LIMIT $3`
		args = append(args, *courseID, limit)
	} else {
		sqlQuery += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to load chunks")
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		scored, err := scanPgChunk(rows)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to scan chunk")
			return nil, err
		}
		chunks = append(chunks, scored.Chunk)
	}

	return chunks, rows.Err()
}

// DeleteBySource removes every chunk for one source file.
func (s *PgvectorStore) DeleteBySource(ctx context.Context, tenantID, sourceID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE tenant_id = $1 AND source_id = $2`, tenantID, sourceID)
	if err != nil {
		s.logger.Error().Err(err).Str("source_id", sourceID).Msg("Failed to delete chunks")
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// Count returns the number of chunks indexed for the tenant.
func (s *PgvectorStore) Count(ctx context.Context, tenantID string, courseID *string) (int, error) {
	query := `SELECT COUNT(*) FROM chunks WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if courseID != nil {
		query += ` AND course_id = $2`
		args = append(args, *courseID)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to count chunks")
		return 0, err
	}
	return count, nil
}

func scanPgChunk(rows *sql.Rows) (*models.ScoredChunk, error) {
	var chunk models.Chunk
	var courseID, courseName sql.NullString
	var embedding pgvector.Vector
	var pageNumber, totalPages sql.NullInt64
	var startTime, endTime sql.NullFloat64
	var score float64

	err := rows.Scan(
		&chunk.ID, &chunk.TenantID, &chunk.SourceID, &courseID, &courseName,
		&chunk.Content, &chunk.ContentHash, &embedding, &chunk.TokenCount,
		&chunk.Metadata.FileName, &chunk.Metadata.SourceType, &chunk.Metadata.DocumentType,
		&pageNumber, &totalPages, &startTime, &endTime, &chunk.Metadata.ContainsVisual,
		&chunk.Metadata.ParentContent, &score,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunk: %w", err)
	}

	chunk.Embedding = embedding.Slice()
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

	return &models.ScoredChunk{Chunk: &chunk, Score: score}, nil
}
