package worker

import (
	"context"

	"github.com/vytor/studyflash/internal/models"
)

// OutcomeRecorder applies a review outcome to durable flashcard progress.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome models.ReviewOutcome) error
}

// SummaryStore persists the summary of a finished study session.
type SummaryStore interface {
	Insert(ctx context.Context, summary models.SessionSummary) error
}

type RecordOutcomeJob struct {
	Recorder OutcomeRecorder
	Outcome  models.ReviewOutcome
}

func (j *RecordOutcomeJob) Name() string { return "record_outcome" }

func (j *RecordOutcomeJob) Run(ctx context.Context) error {
	return j.Recorder.RecordOutcome(ctx, j.Outcome)
}

type SaveSummaryJob struct {
	Store   SummaryStore
	Summary models.SessionSummary
}

func (j *SaveSummaryJob) Name() string { return "save_summary" }

func (j *SaveSummaryJob) Run(ctx context.Context) error {
	return j.Store.Insert(ctx, j.Summary)
}
