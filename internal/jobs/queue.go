package jobs

import (
	"context"

	"github.com/vytor/studyflash/internal/models"
)

// JobQueue forwards study events to background processing.
type JobQueue interface {
	EnqueueOutcome(ctx context.Context, outcome models.ReviewOutcome) error
	EnqueueSummary(ctx context.Context, summary models.SessionSummary) error
}
