package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

// MockFlashcardRepository is a mock implementation of repository.FlashcardRepository
type MockFlashcardRepository struct {
	mock.Mock
}

func (m *MockFlashcardRepository) Insert(ctx context.Context, flashcard models.Flashcard) (string, error) {
	args := m.Called(ctx, flashcard)
	return args.String(0), args.Error(1)
}

func (m *MockFlashcardRepository) Get(ctx context.Context, userID, id string) (*models.Flashcard, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flashcard), args.Error(1)
}

func (m *MockFlashcardRepository) List(ctx context.Context, filter models.FlashcardFilter) ([]models.Flashcard, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Flashcard), args.Error(1)
}

func (m *MockFlashcardRepository) Count(ctx context.Context, filter models.FlashcardFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockFlashcardRepository) Due(ctx context.Context, userID string, now time.Time, limit int) ([]models.Flashcard, error) {
	args := m.Called(ctx, userID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Flashcard), args.Error(1)
}

// Review applies fn to the card configured as the first return value, so
// tests observe what the service computed.
func (m *MockFlashcardRepository) Review(ctx context.Context, userID string, entry models.ReviewHistory, fn repository.ReviewFunc) (*models.Flashcard, error) {
	args := m.Called(ctx, userID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	reviewed := fn(*args.Get(0).(*models.Flashcard))
	return &reviewed, args.Error(1)
}

func (m *MockFlashcardRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}
