package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/models"
)

// MockOutcomeRecorder is a mock implementation of worker.OutcomeRecorder
type MockOutcomeRecorder struct {
	mock.Mock
}

func (m *MockOutcomeRecorder) RecordOutcome(ctx context.Context, outcome models.ReviewOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}
