package jobs

import (
	"context"

	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/worker"
)

// WorkerQueue implements JobQueue on an in-process worker pool.
type WorkerQueue struct {
	pool     *worker.Pool
	recorder worker.OutcomeRecorder
	store    worker.SummaryStore
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, recorder worker.OutcomeRecorder, store worker.SummaryStore) *WorkerQueue {
	return &WorkerQueue{
		pool:     pool,
		recorder: recorder,
		store:    store,
	}
}

func (q *WorkerQueue) EnqueueOutcome(_ context.Context, outcome models.ReviewOutcome) error {
	return q.pool.Submit(&worker.RecordOutcomeJob{
		Recorder: q.recorder,
		Outcome:  outcome,
	})
}

func (q *WorkerQueue) EnqueueSummary(_ context.Context, summary models.SessionSummary) error {
	return q.pool.Submit(&worker.SaveSummaryJob{
		Store:   q.store,
		Summary: summary,
	})
}
