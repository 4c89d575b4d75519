package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/studyflash/internal/models"
)

// ErrDuplicateReview is returned by FlashcardRepository.Review when the
// session already recorded a review of the card.
var ErrDuplicateReview = errors.New("review already recorded for this session")

// ReviewFunc computes a card's new state from the state currently stored.
type ReviewFunc func(current models.Flashcard) models.Flashcard

// FlashcardRepository handles flashcard data access. Lookups are always
// scoped to the owning user; a card of another user is reported as missing.
type FlashcardRepository interface {
	Insert(ctx context.Context, flashcard models.Flashcard) (string, error)
	Get(ctx context.Context, userID, id string) (*models.Flashcard, error)
	List(ctx context.Context, filter models.FlashcardFilter) ([]models.Flashcard, error)
	Count(ctx context.Context, filter models.FlashcardFilter) (int, error)
	Due(ctx context.Context, userID string, now time.Time, limit int) ([]models.Flashcard, error)
	// Review reads the card, applies fn and stores the result together with
	// the history entry, all in one transaction. A missing card yields nil, nil.
	Review(ctx context.Context, userID string, entry models.ReviewHistory, fn ReviewFunc) (*models.Flashcard, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// SessionRepository stores summaries of completed study sessions.
type SessionRepository interface {
	Insert(ctx context.Context, summary models.SessionSummary) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.SessionSummary, error)
}
