package flashcard

import (
	"math"
	"time"

	"github.com/vytor/studyflash/internal/models"
)

const (
	difficultyStepCorrect   = 0.1
	difficultyStepIncorrect = 0.2

	easyDifficulty   = 0.3
	mediumDifficulty = 0.6

	goodRatio = 0.8
	fairRatio = 0.5

	day = 24 * time.Hour
)

// ApplyReview records one judgement on a card: counters, difficulty and the
// next review time. now is stored as the last review time.
func ApplyReview(card models.Flashcard, wasCorrect bool, now time.Time) models.Flashcard {
	card.ReviewCount++
	if wasCorrect {
		card.CorrectCount++
		card.DifficultyScore = math.Max(0, card.DifficultyScore-difficultyStepCorrect)
	} else {
		card.DifficultyScore = math.Min(1, card.DifficultyScore+difficultyStepIncorrect)
	}

	ratio := float64(card.CorrectCount) / float64(card.ReviewCount)
	next := now.Add(NextInterval(card.DifficultyScore, card.ReviewCount, ratio))

	card.LastReviewedAt = &now
	card.NextReviewAt = &next
	card.UpdatedAt = now
	return card
}

// NextInterval returns how long to wait before showing a card again.
// Cards answered well and rated easy wait longest; the wait grows with the
// number of reviews except for poorly known cards.
func NextInterval(difficulty float64, reviewCount int, correctRatio float64) time.Duration {
	growth := time.Duration(reviewCount + 1)

	switch {
	case correctRatio >= goodRatio:
		switch {
		case difficulty <= easyDifficulty:
			return 7 * growth * day
		case difficulty <= mediumDifficulty:
			return 4 * growth * day
		default:
			return 2 * growth * day
		}
	case correctRatio >= fairRatio:
		switch {
		case difficulty <= easyDifficulty:
			return 3 * growth * day
		case difficulty <= mediumDifficulty:
			return 2 * growth * day
		default:
			return growth * day
		}
	default:
		if difficulty <= mediumDifficulty {
			return day
		}
		return 12 * time.Hour
	}
}
