package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueOutcome(ctx context.Context, outcome models.ReviewOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueSummary(ctx context.Context, summary models.SessionSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}
