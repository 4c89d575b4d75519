package models

import "time"

type Flashcard struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	NoteID          string     `json:"note_id,omitempty"`
	Question        string     `json:"question"`
	Answer          string     `json:"answer"`
	DifficultyScore float64    `json:"difficulty_score"`
	ReviewCount     int        `json:"review_count"`
	CorrectCount    int        `json:"correct_count"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at"`
	NextReviewAt    *time.Time `json:"next_review_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// MasteryRatio is the historical share of correct reviews. A card that was
// never reviewed has a ratio of 0.
func (c Flashcard) MasteryRatio() float64 {
	return float64(c.CorrectCount) / float64(max(1, c.ReviewCount))
}

// IsNew reports whether the card has never been reviewed.
func (c Flashcard) IsNew() bool {
	return c.ReviewCount == 0
}

// IsDue reports whether the card should be offered for review at now.
func (c Flashcard) IsDue(now time.Time) bool {
	return c.NextReviewAt == nil || !c.NextReviewAt.After(now)
}

type NewFlashcard struct {
	NoteID   string
	Question string
	Answer   string
}

type FlashcardFilter struct {
	UserID string
	NoteID string
	Limit  int
	Offset int
}

// ReviewHistory is one stored review. SessionID is empty for reviews made
// outside a study session.
type ReviewHistory struct {
	ID          int64     `json:"id"`
	FlashcardID string    `json:"flashcard_id"`
	SessionID   string    `json:"session_id,omitempty"`
	WasCorrect  bool      `json:"was_correct"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}
