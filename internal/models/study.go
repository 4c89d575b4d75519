package models

import "time"

// ReviewOutcome is the event produced for every judged card in a study
// session, forwarded to storage so the card's counters are updated.
type ReviewOutcome struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	FlashcardID string    `json:"flashcard_id"`
	WasCorrect  bool      `json:"was_correct"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}

// SessionSummary is the record kept of a completed study session.
type SessionSummary struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Mode        string    `json:"mode"`
	TotalCards  int       `json:"total_cards"`
	Correct     int       `json:"correct"`
	Incorrect   int       `json:"incorrect"`
	Accuracy    int       `json:"accuracy"`
	BestStreak  int       `json:"best_streak"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
