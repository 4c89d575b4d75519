package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

const defaultDueLimit = 20

// FlashcardService handles flashcard-related business logic
type FlashcardService interface {
	CreateFlashcard(ctx context.Context, userID string, in models.NewFlashcard) (*models.Flashcard, error)
	GetFlashcard(ctx context.Context, userID, id string) (*models.Flashcard, error)
	ListFlashcards(ctx context.Context, filter models.FlashcardFilter) ([]models.Flashcard, int, error)
	DueFlashcards(ctx context.Context, userID string, limit int) ([]models.Flashcard, error)
	ReviewFlashcard(ctx context.Context, userID, id string, wasCorrect bool) (*models.Flashcard, error)
	DeleteFlashcard(ctx context.Context, userID, id string) error
	RecordOutcome(ctx context.Context, outcome models.ReviewOutcome) error
}

type flashcardService struct {
	repo repository.FlashcardRepository
	now  func() time.Time
}

// NewFlashcardService creates a new FlashcardService
func NewFlashcardService(repo repository.FlashcardRepository) FlashcardService {
	return &flashcardService{repo: repo, now: time.Now}
}

func (s *flashcardService) CreateFlashcard(ctx context.Context, userID string, in models.NewFlashcard) (*models.Flashcard, error) {
	log := logger.FromContext(ctx)

	question := strings.TrimSpace(in.Question)
	answer := strings.TrimSpace(in.Answer)
	if question == "" {
		return nil, errors.NewValidationError("question", "cannot be blank")
	}
	if answer == "" {
		return nil, errors.NewValidationError("answer", "cannot be blank")
	}

	now := s.now().UTC()
	card := models.Flashcard{
		UserID:    userID,
		NoteID:    strings.TrimSpace(in.NoteID),
		Question:  question,
		Answer:    answer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.repo.Insert(ctx, card)
	if err != nil {
		log.Error("failed to create flashcard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	card.ID = id
	log.Info("flashcard created: id=%s", id)
	return &card, nil
}

func (s *flashcardService) GetFlashcard(ctx context.Context, userID, id string) (*models.Flashcard, error) {
	card, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get flashcard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("flashcard", id)
	}
	return card, nil
}

// ListFlashcards returns one page of cards and the total matching the filter.
func (s *flashcardService) ListFlashcards(ctx context.Context, filter models.FlashcardFilter) ([]models.Flashcard, int, error) {
	log := logger.FromContext(ctx)

	cards, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list flashcards: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count flashcards: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	if cards == nil {
		cards = []models.Flashcard{}
	}
	return cards, total, nil
}

func (s *flashcardService) DueFlashcards(ctx context.Context, userID string, limit int) ([]models.Flashcard, error) {
	if limit <= 0 {
		limit = defaultDueLimit
	}
	cards, err := s.repo.Due(ctx, userID, s.now().UTC(), limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load due flashcards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if cards == nil {
		cards = []models.Flashcard{}
	}
	return cards, nil
}

func (s *flashcardService) ReviewFlashcard(ctx context.Context, userID, id string, wasCorrect bool) (*models.Flashcard, error) {
	return s.review(ctx, userID, models.ReviewHistory{
		FlashcardID: id,
		WasCorrect:  wasCorrect,
		ReviewedAt:  s.now().UTC(),
	})
}

// RecordOutcome applies a study-session judgement to the card it refers to.
// Outcomes are delivered at least once; a redelivery for the same session
// and card is dropped.
func (s *flashcardService) RecordOutcome(ctx context.Context, outcome models.ReviewOutcome) error {
	log := logger.FromContext(ctx)

	reviewedAt := outcome.ReviewedAt
	if reviewedAt.IsZero() {
		reviewedAt = s.now()
	}
	_, err := s.review(ctx, outcome.UserID, models.ReviewHistory{
		FlashcardID: outcome.FlashcardID,
		SessionID:   outcome.SessionID,
		WasCorrect:  outcome.WasCorrect,
		ReviewedAt:  reviewedAt.UTC(),
	})
	switch {
	case errors.HasCode(err, errors.ErrCodeNotFound):
		// Card deleted mid-session; nothing left to update.
		log.Warn("dropping outcome for missing flashcard: id=%s", outcome.FlashcardID)
		return nil
	case stderrors.Is(err, repository.ErrDuplicateReview):
		log.Info("dropping duplicate outcome: session_id=%s, flashcard_id=%s", outcome.SessionID, outcome.FlashcardID)
		return nil
	}
	return err
}

func (s *flashcardService) review(ctx context.Context, userID string, entry models.ReviewHistory) (*models.Flashcard, error) {
	log := logger.FromContext(ctx)
	log.Debug("reviewing flashcard: id=%s, was_correct=%t", entry.FlashcardID, entry.WasCorrect)

	updated, err := s.repo.Review(ctx, userID, entry, func(current models.Flashcard) models.Flashcard {
		return flashcard.ApplyReview(current, entry.WasCorrect, entry.ReviewedAt)
	})
	if stderrors.Is(err, repository.ErrDuplicateReview) {
		return nil, err
	}
	if err != nil {
		log.Error("failed to review flashcard: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if updated == nil {
		return nil, errors.NewNotFoundError("flashcard", entry.FlashcardID)
	}

	log.Debug("flashcard reviewed: id=%s, difficulty=%.2f, next_review=%v", entry.FlashcardID, updated.DifficultyScore, updated.NextReviewAt)
	return updated, nil
}

func (s *flashcardService) DeleteFlashcard(ctx context.Context, userID, id string) error {
	removed, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to delete flashcard: %v", err)
		return errors.NewInternalError(err)
	}
	if !removed {
		return errors.NewNotFoundError("flashcard", id)
	}
	logger.FromContext(ctx).Info("flashcard deleted: id=%s", id)
	return nil
}
