package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/internal/tutor/testutil"
)

func TestJobRepositoryLifecycleIntegration(t *testing.T) {
	database := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, database)

	repo := NewJobRepository(database)
	ctx := context.Background()

	job, err := repo.Create(ctx, "file-int-1", "tenant-int")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, status := range []models.JobStatus{
		models.StatusDownloading, models.StatusProcessing,
		models.StatusChunking, models.StatusEmbedding,
	} {
		if err := repo.Advance(ctx, job, status); err != nil {
			t.Fatalf("Advance(%s) error = %v", status, err)
		}
	}
	if err := repo.SetDetectedType(ctx, job, "pdf"); err != nil {
		t.Fatalf("SetDetectedType() error = %v", err)
	}
	if err := repo.SetLocalPath(ctx, job, "/tmp/file-int-1.pdf"); err != nil {
		t.Fatalf("SetLocalPath() error = %v", err)
	}
	if err := repo.Complete(ctx, job, 7, true); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	stored, err := repo.Get(ctx, "file-int-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", stored.Status)
	}
	if stored.ChunkCount != 7 || !stored.ContainsVisual {
		t.Errorf("accounting = (%d, %v), want (7, true)", stored.ChunkCount, stored.ContainsVisual)
	}
	if stored.DetectedType == nil || *stored.DetectedType != "pdf" {
		t.Error("detected type not persisted")
	}

	// Reset clears everything the run recorded about the content but keeps
	// the memoized download path.
	if err := repo.Reset(ctx, stored); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	reset, err := repo.Get(ctx, "file-int-1")
	if err != nil {
		t.Fatalf("Get() after reset error = %v", err)
	}
	if reset.Status != models.StatusPending {
		t.Errorf("status after reset = %s, want pending", reset.Status)
	}
	if reset.ChunkCount != 0 {
		t.Errorf("chunk count after reset = %d, want 0", reset.ChunkCount)
	}
	if reset.ContainsVisual {
		t.Error("contains_visual not cleared by reset")
	}
	if reset.DetectedType != nil {
		t.Errorf("detected type not cleared by reset: %s", *reset.DetectedType)
	}
	if reset.CompletedAt != nil {
		t.Error("completed_at not cleared by reset")
	}
	if reset.LocalPath == nil || *reset.LocalPath != "/tmp/file-int-1.pdf" {
		t.Error("local path did not survive reset")
	}
}

func TestJobRepositoryGetUnknownIntegration(t *testing.T) {
	database := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, database)

	repo := NewJobRepository(database)
	if _, err := repo.Get(context.Background(), "no-such-file"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}
