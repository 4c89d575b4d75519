package flashcard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/models"
)

var reviewTime = time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)

func TestApplyReview_FirstCorrect(t *testing.T) {
	card := models.Flashcard{ID: "c1", Question: "q", Answer: "a"}

	updated := flashcard.ApplyReview(card, true, reviewTime)

	assert.Equal(t, 1, updated.ReviewCount, "review count should increment")
	assert.Equal(t, 1, updated.CorrectCount, "correct count should increment")
	assert.Equal(t, 0.0, updated.DifficultyScore, "difficulty should not drop below 0")
	require.NotNil(t, updated.LastReviewedAt)
	require.NotNil(t, updated.NextReviewAt)
	assert.Equal(t, reviewTime, *updated.LastReviewedAt)
	// ratio 1.0, easy, one review → 7 * 2 days
	assert.Equal(t, reviewTime.Add(14*24*time.Hour), *updated.NextReviewAt)
	assert.Equal(t, "q", updated.Question, "text is never touched")
}

func TestApplyReview_Incorrect(t *testing.T) {
	card := models.Flashcard{DifficultyScore: 0.5, ReviewCount: 3, CorrectCount: 3}

	updated := flashcard.ApplyReview(card, false, reviewTime)

	assert.Equal(t, 4, updated.ReviewCount)
	assert.Equal(t, 3, updated.CorrectCount, "correct count should not change")
	assert.InDelta(t, 0.7, updated.DifficultyScore, 1e-9)
	// ratio 0.75 (fair), hard → 1 * 5 days
	assert.Equal(t, reviewTime.Add(5*24*time.Hour), *updated.NextReviewAt)
}

func TestApplyReview_DifficultyCapped(t *testing.T) {
	card := models.Flashcard{DifficultyScore: 0.9}
	for i := 0; i < 5; i++ {
		card = flashcard.ApplyReview(card, false, reviewTime)
		assert.LessOrEqual(t, card.DifficultyScore, 1.0, "difficulty should not exceed 1")
	}
	assert.Equal(t, 1.0, card.DifficultyScore)
	assert.Equal(t, 0, card.CorrectCount)
	assert.Equal(t, reviewTime.Add(12*time.Hour), *card.NextReviewAt, "poor and hard cards come back in half a day")
}

func TestApplyReview_DoesNotAliasInput(t *testing.T) {
	card := models.Flashcard{ReviewCount: 1, CorrectCount: 1}
	updated := flashcard.ApplyReview(card, true, reviewTime)

	assert.Equal(t, 1, card.ReviewCount)
	assert.Nil(t, card.NextReviewAt)
	assert.Equal(t, 2, updated.ReviewCount)
}

func TestNextInterval(t *testing.T) {
	const day = 24 * time.Hour
	tests := []struct {
		name       string
		difficulty float64
		reviews    int
		ratio      float64
		expected   time.Duration
	}{
		{"good easy", 0.2, 1, 0.9, 14 * day},
		{"good medium", 0.5, 2, 0.8, 12 * day},
		{"good hard", 0.9, 3, 1.0, 8 * day},
		{"fair easy", 0.3, 1, 0.6, 6 * day},
		{"fair medium", 0.6, 3, 0.5, 8 * day},
		{"fair hard", 0.7, 3, 0.5, 4 * day},
		{"poor easy", 0.1, 9, 0.1, day},
		{"poor medium", 0.6, 9, 0.3, day},
		{"poor hard", 0.8, 9, 0.0, 12 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, flashcard.NextInterval(tt.difficulty, tt.reviews, tt.ratio))
		})
	}
}
