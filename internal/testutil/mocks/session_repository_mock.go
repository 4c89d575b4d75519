package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/models"
)

// MockSessionRepository is a mock implementation of repository.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Insert(ctx context.Context, summary models.SessionSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.SessionSummary, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionSummary), args.Error(1)
}
