package coordinator

import (
	"errors"
	"fmt"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

var ErrInvalidTransition = errors.New("invalid job status transition")

// transitions is the explicit indexing-job state machine. Every status
// change goes through advance, so an illegal move is a bug surfaced at the
// call site rather than silently persisted.
var transitions = map[models.JobStatus][]models.JobStatus{
	models.StatusPending:     {models.StatusDownloading, models.StatusFailed},
	models.StatusDownloading: {models.StatusProcessing, models.StatusFailed},
	models.StatusProcessing:  {models.StatusChunking, models.StatusFailed},
	models.StatusChunking:    {models.StatusEmbedding, models.StatusFailed},
	models.StatusEmbedding:   {models.StatusCompleted, models.StatusFailed},
	models.StatusCompleted:   {},
	models.StatusFailed:      {},
}

// canTransition reports whether from may move to to.
func canTransition(from, to models.JobStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// isTerminal reports whether the status admits no further transitions.
// Terminal jobs only leave their state through an explicit reset.
func isTerminal(status models.JobStatus) bool {
	return len(transitions[status]) == 0
}

// validateTransition returns ErrInvalidTransition with both states named
// when the move is not in the table.
func validateTransition(from, to models.JobStatus) error {
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
