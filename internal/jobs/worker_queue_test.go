package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/testutil/mocks"
	"github.com/vytor/studyflash/internal/worker"
)

func TestWorkerQueue_DeliversToCollaborators(t *testing.T) {
	pool := worker.NewPool("test", 1, 8)
	pool.Start(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)

	recorder := new(mocks.MockOutcomeRecorder)
	recorder.On("RecordOutcome", mock.Anything, mock.MatchedBy(func(o models.ReviewOutcome) bool {
		return o.FlashcardID == "c1"
	})).Run(func(mock.Arguments) { wg.Done() }).Return(nil)

	store := new(mocks.MockSessionRepository)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(s models.SessionSummary) bool {
		return s.ID == "s1"
	})).Run(func(mock.Arguments) { wg.Done() }).Return(nil)

	q := NewWorkerQueue(pool, recorder, store)
	require.NoError(t, q.EnqueueOutcome(context.Background(), models.ReviewOutcome{FlashcardID: "c1"}))
	require.NoError(t, q.EnqueueSummary(context.Background(), models.SessionSummary{ID: "s1"}))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not processed")
	}

	pool.Stop()
	recorder.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestWorkerQueue_StoppedPool(t *testing.T) {
	pool := worker.NewPool("test", 1, 1)
	pool.Start(context.Background())
	pool.Stop()

	q := NewWorkerQueue(pool, new(mocks.MockOutcomeRecorder), new(mocks.MockSessionRepository))
	err := q.EnqueueOutcome(context.Background(), models.ReviewOutcome{FlashcardID: "c1"})
	assert.ErrorIs(t, err, worker.ErrPoolStopped)
}
