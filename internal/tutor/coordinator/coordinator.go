// Package coordinator drives the file-indexing pipeline: download, extract,
// chunk, embed, and the explicit job state machine around those stages.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/code-sleuth/eduverse-go/internal/tutor/interfaces"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
)

var (
	// Registration errors.
	ErrExtractorAlreadyRegistered = errors.New("extractor already registered for source type")

	// Pipeline errors.
	ErrNoExtractorRegistered = errors.New("no extractor registered for source type")
	ErrAlreadyIndexed        = errors.New("file is already indexed")
	ErrIndexingInProgress    = errors.New("indexing already in progress for file")
)

// Chunker turns extracted documents into index-ready chunks.
type Chunker interface {
	Chunk(tenantID string, docs []*models.SourceDocument) []*models.Chunk
}

// JobStore is the persistence contract for indexing jobs, satisfied by
// JobRepository.
type JobStore interface {
	Create(ctx context.Context, fileID, tenantID string) (*models.IndexingJob, error)
	Get(ctx context.Context, fileID string) (*models.IndexingJob, error)
	Advance(ctx context.Context, job *models.IndexingJob, to models.JobStatus) error
	SetDetectedType(ctx context.Context, job *models.IndexingJob, detectedType string) error
	SetLocalPath(ctx context.Context, job *models.IndexingJob, path string) error
	Complete(ctx context.Context, job *models.IndexingJob, chunkCount int, containsVisual bool) error
	Fail(ctx context.Context, job *models.IndexingJob, reason string) error
	Reset(ctx context.Context, job *models.IndexingJob) error
}

// Coordinator owns indexing jobs. All collaborators are injected; the
// coordinator holds no global state beyond its extractor registry.
type Coordinator struct {
	catalog    interfaces.FileCatalog
	storage    interfaces.FileStorage
	index      interfaces.KnowledgeIndex
	normalizer Chunker
	jobs       JobStore
	extractors map[string]interfaces.Extractor
	logger     zerolog.Logger
	mu         sync.RWMutex
}

// New creates a coordinator with its injected collaborators.
func New(
	catalog interfaces.FileCatalog,
	storage interfaces.FileStorage,
	index interfaces.KnowledgeIndex,
	chunker Chunker,
	jobs JobStore,
) *Coordinator {
	return &Coordinator{
		catalog:    catalog,
		storage:    storage,
		index:      index,
		normalizer: chunker,
		jobs:       jobs,
		extractors: make(map[string]interfaces.Extractor),
		logger:     util.NewLogger(util.LogLevelFromEnv("COORDINATOR_LOG_LEVEL")),
	}
}

// RegisterExtractor adds an extractor for its source type.
func (c *Coordinator) RegisterExtractor(extractor interfaces.Extractor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sourceType := extractor.SourceType()
	if _, exists := c.extractors[sourceType]; exists {
		c.logger.Error().Str("source_type", sourceType).Msg("Extractor already registered")
		return ErrExtractorAlreadyRegistered
	}

	c.extractors[sourceType] = extractor
	c.logger.Info().Str("source_type", sourceType).Msg("Registered extractor")
	return nil
}

// Start runs the indexing pipeline for one file. A completed job returns
// ErrAlreadyIndexed and an in-flight job returns ErrIndexingInProgress; a
// failed job is reset and retried. The returned job reflects the final
// state, including failure, so callers inspect job.Status rather than err
// for pipeline-stage outcomes.
func (c *Coordinator) Start(ctx context.Context, fileID string) (*models.IndexingJob, error) {
	file, err := c.catalog.Lookup(ctx, fileID)
	if err != nil {
		c.logger.Error().Err(err).Str("file_id", fileID).Msg("File lookup failed")
		return nil, err
	}

	job, err := c.jobs.Get(ctx, fileID)
	switch {
	case errors.Is(err, ErrJobNotFound):
		job, err = c.jobs.Create(ctx, fileID, file.TenantID)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case job.Status == models.StatusCompleted:
		return job, ErrAlreadyIndexed
	case !isTerminal(job.Status) && job.Status != models.StatusPending:
		return job, ErrIndexingInProgress
	case job.Status == models.StatusFailed:
		if err := c.jobs.Reset(ctx, job); err != nil {
			return nil, err
		}
	}

	c.run(ctx, job, file)
	return job, nil
}

// Reindex deletes the file's chunks and runs the pipeline again regardless
// of current job state. The memoized download survives.
func (c *Coordinator) Reindex(ctx context.Context, fileID string) (*models.IndexingJob, error) {
	file, err := c.catalog.Lookup(ctx, fileID)
	if err != nil {
		return nil, err
	}

	job, err := c.jobs.Get(ctx, fileID)
	switch {
	case errors.Is(err, ErrJobNotFound):
		job, err = c.jobs.Create(ctx, fileID, file.TenantID)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !isTerminal(job.Status) && job.Status != models.StatusPending:
		return job, ErrIndexingInProgress
	default:
		if _, err := c.index.DeleteBySource(ctx, file.TenantID, fileID); err != nil {
			return nil, err
		}
		if err := c.jobs.Reset(ctx, job); err != nil {
			return nil, err
		}
	}

	c.run(ctx, job, file)
	return job, nil
}

// Status returns the current job for a file.
func (c *Coordinator) Status(ctx context.Context, fileID string) (*models.IndexingJob, error) {
	return c.jobs.Get(ctx, fileID)
}

// Delete removes a file's chunks and resets its job to pending, returning
// how many chunks were dropped. The job record itself survives so a later
// status query still resolves.
func (c *Coordinator) Delete(ctx context.Context, fileID string) (int, error) {
	file, err := c.catalog.Lookup(ctx, fileID)
	if err != nil {
		return 0, err
	}

	deleted, err := c.index.DeleteBySource(ctx, file.TenantID, fileID)
	if err != nil {
		return 0, err
	}

	job, err := c.jobs.Get(ctx, fileID)
	switch {
	case errors.Is(err, ErrJobNotFound):
		// Never indexed; nothing to reset.
	case err != nil:
		return deleted, err
	default:
		if err := c.jobs.Reset(ctx, job); err != nil {
			return deleted, err
		}
	}

	c.logger.Info().Str("file_id", fileID).Int("chunks_deleted", deleted).Msg("Deleted indexed content")
	return deleted, nil
}

// StartCourse indexes every registered file in a course. Files already
// completed or in flight are skipped; per-file pipeline failures land in
// their job records without stopping the batch.
func (c *Coordinator) StartCourse(ctx context.Context, tenantID, courseID string) ([]*models.IndexingJob, error) {
	files, err := c.catalog.ListByCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}

	jobs := make([]*models.IndexingJob, 0, len(files))
	for _, file := range files {
		job, err := c.Start(ctx, file.ID)
		if errors.Is(err, ErrAlreadyIndexed) || errors.Is(err, ErrIndexingInProgress) {
			c.logger.Info().Str("file_id", file.ID).Str("status", string(job.Status)).Msg("Skipping file")
			jobs = append(jobs, job)
			continue
		}
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// run executes the pipeline stages, advancing the job through the state
// machine and recording any stage failure on the job.
func (c *Coordinator) run(ctx context.Context, job *models.IndexingJob, file *models.FileInfo) {
	path, err := c.download(ctx, job, file)
	if err != nil {
		c.fail(ctx, job, err.Error())
		return
	}

	docs, err := c.process(ctx, job, file, path)
	if err != nil {
		c.fail(ctx, job, err.Error())
		return
	}

	chunks, err := c.chunk(ctx, job, file, docs)
	if err != nil {
		c.fail(ctx, job, err.Error())
		return
	}

	if err := c.embed(ctx, job, chunks); err != nil {
		c.fail(ctx, job, err.Error())
		return
	}

	containsVisual := false
	for _, doc := range docs {
		if doc.Metadata.ContainsVisual {
			containsVisual = true
			break
		}
	}

	if err := c.jobs.Complete(ctx, job, len(chunks), containsVisual); err != nil {
		c.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to mark job completed")
		return
	}

	c.logger.Info().
		Str("file_id", job.FileID).
		Int("chunks", len(chunks)).
		Msg("Indexing completed")
}

func (c *Coordinator) download(ctx context.Context, job *models.IndexingJob, file *models.FileInfo) (string, error) {
	if err := c.jobs.Advance(ctx, job, models.StatusDownloading); err != nil {
		return "", err
	}

	// A previous run may have already fetched the file.
	if job.LocalPath != nil {
		if _, err := os.Stat(*job.LocalPath); err == nil {
			c.logger.Debug().Str("file_id", job.FileID).Str("path", *job.LocalPath).Msg("Reusing downloaded file")
			return *job.LocalPath, nil
		}
	}

	path, err := c.storage.Download(ctx, file.ID, file.Name)
	if err != nil {
		return "", fmt.Errorf("download failed for '%s': %w", file.Name, err)
	}

	if err := c.jobs.SetLocalPath(ctx, job, path); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Coordinator) process(
	ctx context.Context,
	job *models.IndexingJob,
	file *models.FileInfo,
	path string,
) ([]*models.SourceDocument, error) {
	if err := c.jobs.Advance(ctx, job, models.StatusProcessing); err != nil {
		return nil, err
	}

	sourceType, err := detectSourceType(file.MimeType, file.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", err, file.Name)
	}
	if err := c.jobs.SetDetectedType(ctx, job, sourceType); err != nil {
		return nil, err
	}

	c.mu.RLock()
	extractor, exists := c.extractors[sourceType]
	c.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoExtractorRegistered, sourceType)
	}

	meta := models.DocumentMetadata{
		SourceType: sourceType,
		SourceID:   file.ID,
		FileName:   file.Name,
		CourseID:   file.CourseID,
		CourseName: file.CourseName,
	}

	docs, err := extractor.Extract(ctx, path, meta)
	if err != nil {
		return nil, fmt.Errorf("extraction failed for '%s': %w", file.Name, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no content extracted from '%s'", file.Name)
	}

	return docs, nil
}

func (c *Coordinator) chunk(
	ctx context.Context,
	job *models.IndexingJob,
	file *models.FileInfo,
	docs []*models.SourceDocument,
) ([]*models.Chunk, error) {
	if err := c.jobs.Advance(ctx, job, models.StatusChunking); err != nil {
		return nil, err
	}

	chunks := c.normalizer.Chunk(job.TenantID, docs)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunking produced zero chunks for '%s'", file.Name)
	}
	return chunks, nil
}

func (c *Coordinator) embed(ctx context.Context, job *models.IndexingJob, chunks []*models.Chunk) error {
	if err := c.jobs.Advance(ctx, job, models.StatusEmbedding); err != nil {
		return err
	}

	if _, err := c.index.Add(ctx, chunks); err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	return nil
}

func (c *Coordinator) fail(ctx context.Context, job *models.IndexingJob, reason string) {
	c.logger.Error().Str("file_id", job.FileID).Str("reason", reason).Msg("Indexing failed")
	if err := c.jobs.Fail(ctx, job, reason); err != nil {
		c.logger.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to record job failure")
	}
}
