// Package study drives a user through a fixed deck of flashcards one card at
// a time, collecting a correct/incorrect judgement for each card.
//
// A Session is a plain in-memory state machine: it performs no I/O and is not
// safe for concurrent use. Hosts that share a Session between goroutines must
// serialize access themselves.
package study

import (
	"fmt"
	"math"

	"github.com/vytor/studyflash/internal/models"
)

// Tally counts the judgements recorded so far.
type Tally struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// Judged is the number of cards judged.
func (t Tally) Judged() int {
	return t.Correct + t.Incorrect
}

// Outcome is emitted by Judge for the caller to forward to storage.
type Outcome struct {
	FlashcardID string `json:"flashcard_id"`
	WasCorrect  bool   `json:"was_correct"`
}

// Stats is a read-only snapshot of a session's progress.
type Stats struct {
	Total      int  `json:"total"`
	Position   int  `json:"position"`
	Correct    int  `json:"correct"`
	Incorrect  int  `json:"incorrect"`
	Streak     int  `json:"streak"`
	BestStreak int  `json:"best_streak"`
	Accuracy   int  `json:"accuracy"`
	Complete   bool `json:"complete"`
}

// Session holds the progress of one pass through a deck.
//
// Invariant: tally.Judged() == position.
type Session struct {
	deck       []models.Flashcard
	position   int
	flipped    bool
	tally      Tally
	streak     int
	bestStreak int
}

// New starts a session over deck. The deck is copied; later changes to the
// caller's slice do not affect the session.
func New(deck []models.Flashcard) (*Session, error) {
	if len(deck) == 0 {
		return nil, fmt.Errorf("%w: cannot start a session with zero cards", ErrInvalidInput)
	}
	for i, c := range deck {
		if err := checkCard(c); err != nil {
			return nil, fmt.Errorf("%w: card %d (%s): %v", ErrInvalidInput, i, c.ID, err)
		}
	}
	return &Session{deck: append([]models.Flashcard(nil), deck...)}, nil
}

func checkCard(c models.Flashcard) error {
	switch {
	case c.ReviewCount < 0 || c.CorrectCount < 0:
		return fmt.Errorf("negative review counters")
	case c.CorrectCount > c.ReviewCount:
		return fmt.Errorf("correct count %d exceeds review count %d", c.CorrectCount, c.ReviewCount)
	}
	return nil
}

// Reveal shows the answer of the current card. Revealing an already
// revealed card is a no-op.
func (s *Session) Reveal() error {
	if s.IsComplete() {
		return fmt.Errorf("%w: cannot reveal a card in a completed session", ErrInvalidState)
	}
	s.flipped = true
	return nil
}

// Judge records whether the current card was answered correctly and advances
// to the next card. The card must have been revealed first.
func (s *Session) Judge(wasCorrect bool) (Outcome, error) {
	if s.IsComplete() {
		return Outcome{}, fmt.Errorf("%w: cannot judge a card in a completed session", ErrInvalidState)
	}
	if !s.flipped {
		return Outcome{}, fmt.Errorf("%w: cannot record an outcome before the answer is shown", ErrInvalidState)
	}

	card := s.deck[s.position]
	if wasCorrect {
		s.tally.Correct++
		s.streak++
		s.bestStreak = max(s.bestStreak, s.streak)
	} else {
		s.tally.Incorrect++
		s.streak = 0
	}
	s.position++
	s.flipped = false

	return Outcome{FlashcardID: card.ID, WasCorrect: wasCorrect}, nil
}

// Accuracy is the rounded percentage of correct judgements, 0 before any card
// has been judged.
func (s *Session) Accuracy() int {
	return int(math.Round(100 * float64(s.tally.Correct) / float64(max(1, s.tally.Judged()))))
}

// IsComplete reports whether every card in the deck has been judged.
func (s *Session) IsComplete() bool {
	return s.position == len(s.deck)
}

// Current returns the card being studied.
func (s *Session) Current() (models.Flashcard, error) {
	if s.IsComplete() {
		return models.Flashcard{}, fmt.Errorf("%w: session is complete", ErrInvalidState)
	}
	return s.deck[s.position], nil
}

func (s *Session) Position() int   { return s.position }
func (s *Session) Len() int        { return len(s.deck) }
func (s *Session) Flipped() bool   { return s.flipped }
func (s *Session) Tally() Tally    { return s.tally }
func (s *Session) Streak() int     { return s.streak }
func (s *Session) BestStreak() int { return s.bestStreak }

// Stats returns a snapshot of the session's counters.
func (s *Session) Stats() Stats {
	return Stats{
		Total:      len(s.deck),
		Position:   s.position,
		Correct:    s.tally.Correct,
		Incorrect:  s.tally.Incorrect,
		Streak:     s.streak,
		BestStreak: s.bestStreak,
		Accuracy:   s.Accuracy(),
		Complete:   s.IsComplete(),
	}
}
