package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/code-sleuth/eduverse-go/internal/tutor/coordinator"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/db"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	indexFileID   string
	indexTenantID string
	indexCourseID string
	indexForce    bool
	indexTimeout  time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the indexing of course materials",
}

var indexStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Index one registered file",
	Long: `Index one registered file end to end: download, extract, chunk, embed.

Examples:
  # Index a file from the manifest
  eduverse index start --file file-123

  # Force re-indexing of an already indexed file
  eduverse index start --file file-123 --force`,
	Run: runIndexStart,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the indexing job for a file",
	Run:   runIndexStatus,
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a file's chunks and reset its indexing job",
	Run:   runIndexDelete,
}

var indexCourseCmd = &cobra.Command{
	Use:   "course",
	Short: "Index every registered file in a course",
	Run:   runIndexCourse,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexStartCmd, indexStatusCmd, indexDeleteCmd, indexCourseCmd)

	for _, c := range []*cobra.Command{indexStartCmd, indexStatusCmd, indexDeleteCmd} {
		c.Flags().StringVarP(&indexFileID, "file", "f", "", "File id from the manifest (required)")
		if err := c.MarkFlagRequired("file"); err != nil {
			return
		}
	}

	indexStartCmd.Flags().BoolVar(&indexForce, "force", false, "Re-index even if already completed")
	indexStartCmd.Flags().DurationVar(&indexTimeout, "timeout", 10*time.Minute, "Timeout for the indexing run")

	indexCourseCmd.Flags().StringVarP(&indexTenantID, "tenant", "t", "", "Tenant id (required)")
	indexCourseCmd.Flags().StringVarP(&indexCourseID, "course", "c", "", "Course id (required)")
	indexCourseCmd.Flags().DurationVar(&indexTimeout, "timeout", 30*time.Minute, "Timeout for the batch run")
	if err := indexCourseCmd.MarkFlagRequired("tenant"); err != nil {
		return
	}
	if err := indexCourseCmd.MarkFlagRequired("course"); err != nil {
		return
	}
}

// indexSetup wires the coordinator and returns a cleanup for its resources.
func indexSetup(logger zerolog.Logger) (*coordinator.Coordinator, func()) {
	database, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	embedder, err := buildEmbedder()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build embedder")
	}

	knowledgeIndex, closeIndex, err := buildIndex(database, embedder)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build knowledge index")
	}

	coord, err := buildCoordinator(database, knowledgeIndex)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build coordinator")
	}

	return coord, func() {
		closeIndex()
		_ = database.Close()
	}
}

func runIndexStart(_ *cobra.Command, _ []string) {
	logger := util.NewLogger(zerolog.InfoLevel)
	coord, cleanup := indexSetup(logger)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	var job *models.IndexingJob
	var err error
	if indexForce {
		job, err = coord.Reindex(ctx, indexFileID)
	} else {
		job, err = coord.Start(ctx, indexFileID)
	}

	switch {
	case errors.Is(err, coordinator.ErrAlreadyIndexed):
		logger.Info().Str("file_id", indexFileID).Msg("File is already indexed, use --force to re-index")
		return
	case errors.Is(err, coordinator.ErrIndexingInProgress):
		logger.Fatal().Str("file_id", indexFileID).Msg("Indexing already in progress for this file")
	case err != nil:
		logger.Fatal().Err(err).Str("file_id", indexFileID).Msg("Indexing failed to start")
	}

	printJob(job)
	if job.Status == models.StatusFailed {
		logger.Fatal().Str("file_id", indexFileID).Msg("Indexing failed")
	}
}

func runIndexStatus(_ *cobra.Command, _ []string) {
	logger := util.NewLogger(zerolog.InfoLevel)
	coord, cleanup := indexSetup(logger)
	defer cleanup()

	job, err := coord.Status(context.Background(), indexFileID)
	if errors.Is(err, coordinator.ErrJobNotFound) {
		logger.Fatal().Str("file_id", indexFileID).Msg("No indexing job for this file")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load job")
	}

	printJob(job)
}

func runIndexDelete(_ *cobra.Command, _ []string) {
	logger := util.NewLogger(zerolog.InfoLevel)
	coord, cleanup := indexSetup(logger)
	defer cleanup()

	deleted, err := coord.Delete(context.Background(), indexFileID)
	if err != nil {
		logger.Fatal().Err(err).Str("file_id", indexFileID).Msg("Failed to delete indexed file")
	}

	logger.Info().Str("file_id", indexFileID).Int("chunks_deleted", deleted).Msg("Deleted indexed file")
}

func runIndexCourse(_ *cobra.Command, _ []string) {
	logger := util.NewLogger(zerolog.InfoLevel)
	coord, cleanup := indexSetup(logger)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	jobs, err := coord.StartCourse(ctx, indexTenantID, indexCourseID)
	if err != nil {
		logger.Fatal().Err(err).Str("course_id", indexCourseID).Msg("Course indexing failed")
	}

	completed, failed := 0, 0
	for _, job := range jobs {
		printJob(job)
		switch job.Status {
		case models.StatusCompleted:
			completed++
		case models.StatusFailed:
			failed++
		}
	}
	logger.Info().
		Int("files", len(jobs)).
		Int("completed", completed).
		Int("failed", failed).
		Msg("Course indexing finished")
}

func printJob(job *models.IndexingJob) {
	out, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}
