package coordinator

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
)

var ErrJobNotFound = errors.New("indexing job not found")

// JobRepository persists indexing jobs. Every write is a single short
// statement so concurrent jobs against the shared database never hold
// locks across pipeline stages.
type JobRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewJobRepository creates a job repository on the given database.
func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{
		db:     database,
		logger: util.NewLogger(util.LogLevelFromEnv("COORDINATOR_LOG_LEVEL")),
	}
}

// Create inserts a fresh pending job for the file.
func (r *JobRepository) Create(ctx context.Context, fileID, tenantID string) (*models.IndexingJob, error) {
	now := time.Now().UTC()
	job := &models.IndexingJob{
		FileID:    fileID,
		TenantID:  tenantID,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO indexing_jobs (file_id, tenant_id, status, chunk_count, contains_visual, created_at, updated_at)
			VALUES (?, ?, ?, 0, 0, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, job.FileID, job.TenantID, string(job.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		r.logger.Error().Err(err).Str("file_id", fileID).Msg("Failed to create indexing job")
		return nil, err
	}

	return job, nil
}

// Get returns the job for a file, or ErrJobNotFound.
func (r *JobRepository) Get(ctx context.Context, fileID string) (*models.IndexingJob, error) {
	query := `SELECT file_id, tenant_id, status, detected_type, chunk_count, contains_visual,
			error, local_path, completed_at, created_at, updated_at
			FROM indexing_jobs WHERE file_id = ?`

	row := r.db.QueryRowContext(ctx, query, fileID)

	var job models.IndexingJob
	var status string
	var detectedType, errMsg, localPath, completedAt sql.NullString
	var containsVisual int
	var createdAt, updatedAt string

	err := row.Scan(&job.FileID, &job.TenantID, &status, &detectedType, &job.ChunkCount,
		&containsVisual, &errMsg, &localPath, &completedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("file_id", fileID).Msg("Failed to get indexing job")
		return nil, err
	}

	job.Status = models.JobStatus(status)
	job.ContainsVisual = containsVisual != 0
	if detectedType.Valid {
		job.DetectedType = &detectedType.String
	}
	if errMsg.Valid {
		job.Error = &errMsg.String
	}
	if localPath.Valid {
		job.LocalPath = &localPath.String
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			job.CompletedAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		job.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		job.UpdatedAt = t
	}

	return &job, nil
}

// Advance moves the job to the next pipeline status after validating the
// transition against the state table.
func (r *JobRepository) Advance(ctx context.Context, job *models.IndexingJob, to models.JobStatus) error {
	if err := validateTransition(job.Status, to); err != nil {
		r.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Rejected status transition")
		return err
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs SET status = ?, updated_at = ? WHERE file_id = ?`,
		string(to), now.Format(time.RFC3339), job.FileID)
	if err != nil {
		r.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to update job status")
		return err
	}

	job.Status = to
	job.UpdatedAt = now
	r.logger.Debug().Str("file_id", job.FileID).Str("status", string(to)).Msg("Job advanced")
	return nil
}

// SetDetectedType records the source type chosen for the file.
func (r *JobRepository) SetDetectedType(ctx context.Context, job *models.IndexingJob, detectedType string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs SET detected_type = ?, updated_at = ? WHERE file_id = ?`,
		detectedType, time.Now().UTC().Format(time.RFC3339), job.FileID)
	if err != nil {
		r.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to set detected type")
		return err
	}
	job.DetectedType = &detectedType
	return nil
}

// SetLocalPath memoizes where the downloaded file lives so a re-run can
// skip the download stage.
func (r *JobRepository) SetLocalPath(ctx context.Context, job *models.IndexingJob, path string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs SET local_path = ?, updated_at = ? WHERE file_id = ?`,
		path, time.Now().UTC().Format(time.RFC3339), job.FileID)
	if err != nil {
		r.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to set local path")
		return err
	}
	job.LocalPath = &path
	return nil
}

// Complete marks the job done with its final chunk accounting.
func (r *JobRepository) Complete(ctx context.Context, job *models.IndexingJob, chunkCount int, containsVisual bool) error {
	if err := validateTransition(job.Status, models.StatusCompleted); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs SET status = ?, chunk_count = ?, contains_visual = ?, error = NULL,
			completed_at = ?, updated_at = ? WHERE file_id = ?`,
		string(models.StatusCompleted), chunkCount, boolToInt(containsVisual),
		now.Format(time.RFC3339), now.Format(time.RFC3339), job.FileID)
	if err != nil {
		r.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to complete job")
		return err
	}

	job.Status = models.StatusCompleted
	job.ChunkCount = chunkCount
	job.ContainsVisual = containsVisual
	job.CompletedAt = &now
	job.UpdatedAt = now
	return nil
}

// Fail marks the job failed with a human-readable reason. Valid from any
// non-terminal status.
func (r *JobRepository) Fail(ctx context.Context, job *models.IndexingJob, reason string) error {
	if err := validateTransition(job.Status, models.StatusFailed); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs SET status = ?, error = ?, updated_at = ? WHERE file_id = ?`,
		string(models.StatusFailed), reason, now.Format(time.RFC3339), job.FileID)
	if err != nil {
		r.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to mark job failed")
		return err
	}

	job.Status = models.StatusFailed
	job.Error = &reason
	job.UpdatedAt = now
	return nil
}

// Reset returns a job to pending, clearing everything a prior run recorded
// about its content. The memoized local path survives so the download stage
// can be skipped.
func (r *JobRepository) Reset(ctx context.Context, job *models.IndexingJob) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE indexing_jobs SET status = ?, detected_type = NULL, chunk_count = 0,
			contains_visual = 0, error = NULL, completed_at = NULL, updated_at = ? WHERE file_id = ?`,
		string(models.StatusPending), now.Format(time.RFC3339), job.FileID)
	if err != nil {
		r.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to reset job")
		return err
	}

	job.Status = models.StatusPending
	job.DetectedType = nil
	job.ChunkCount = 0
	job.ContainsVisual = false
	job.Error = nil
	job.CompletedAt = nil
	job.UpdatedAt = now
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
