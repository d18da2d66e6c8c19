package coordinator

import (
	"errors"
	"testing"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.JobStatus
		to      models.JobStatus
		allowed bool
	}{
		{"pending to downloading", models.StatusPending, models.StatusDownloading, true},
		{"downloading to processing", models.StatusDownloading, models.StatusProcessing, true},
		{"processing to chunking", models.StatusProcessing, models.StatusChunking, true},
		{"chunking to embedding", models.StatusChunking, models.StatusEmbedding, true},
		{"embedding to completed", models.StatusEmbedding, models.StatusCompleted, true},
		{"any stage can fail", models.StatusProcessing, models.StatusFailed, true},
		{"pending can fail", models.StatusPending, models.StatusFailed, true},
		{"no stage skipping", models.StatusPending, models.StatusChunking, false},
		{"no backwards moves", models.StatusEmbedding, models.StatusDownloading, false},
		{"completed is terminal", models.StatusCompleted, models.StatusDownloading, false},
		{"failed is terminal", models.StatusFailed, models.StatusDownloading, false},
		{"completed cannot fail", models.StatusCompleted, models.StatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []models.JobStatus{models.StatusCompleted, models.StatusFailed}
	for _, status := range terminal {
		if !isTerminal(status) {
			t.Errorf("isTerminal(%s) = false, want true", status)
		}
	}

	active := []models.JobStatus{
		models.StatusPending, models.StatusDownloading, models.StatusProcessing,
		models.StatusChunking, models.StatusEmbedding,
	}
	for _, status := range active {
		if isTerminal(status) {
			t.Errorf("isTerminal(%s) = true, want false", status)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	if err := validateTransition(models.StatusPending, models.StatusDownloading); err != nil {
		t.Errorf("valid transition rejected: %v", err)
	}

	err := validateTransition(models.StatusCompleted, models.StatusEmbedding)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}
