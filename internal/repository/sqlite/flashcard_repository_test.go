package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/testutil"
)

type FlashcardRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.FlashcardRepository
}

func (s *FlashcardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewFlashcardRepository(s.db)
}

func (s *FlashcardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *FlashcardRepositorySuite) insert(c models.Flashcard) string {
	id, err := s.repo.Insert(context.Background(), c)
	s.Require().NoError(err)
	return id
}

func (s *FlashcardRepositorySuite) TestInsertAssignsIDAndGet() {
	ctx := context.Background()

	id := s.insert(models.Flashcard{UserID: "u1", NoteID: "n1", Question: "What is ATP?", Answer: "Energy currency"})
	s.Assert().Len(id, 36, "uuid string")

	card, err := s.repo.Get(ctx, "u1", id)
	s.Require().NoError(err)
	s.Require().NotNil(card)
	s.Assert().Equal("n1", card.NoteID)
	s.Assert().Equal("What is ATP?", card.Question)
	s.Assert().Equal("Energy currency", card.Answer)
	s.Assert().Nil(card.NextReviewAt)
	s.Assert().Nil(card.LastReviewedAt)
	s.Assert().False(card.CreatedAt.IsZero())
}

func (s *FlashcardRepositorySuite) TestGetScopedToUser() {
	id := s.insert(testutil.Card("u1", "c1"))

	card, err := s.repo.Get(context.Background(), "u2", id)
	s.Require().NoError(err)
	s.Assert().Nil(card)
}

func (s *FlashcardRepositorySuite) TestReview() {
	ctx := context.Background()
	s.insert(testutil.Card("u1", "c1"))

	reviewed := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	next := reviewed.Add(48 * time.Hour)
	entry := models.ReviewHistory{FlashcardID: "c1", SessionID: "s1", WasCorrect: false, ReviewedAt: reviewed}
	card, err := s.repo.Review(ctx, "u1", entry, func(c models.Flashcard) models.Flashcard {
		s.Assert().Equal(0, c.ReviewCount, "fn sees the stored card")
		c.ReviewCount = 2
		c.CorrectCount = 1
		c.DifficultyScore = 0.3
		c.LastReviewedAt = &reviewed
		c.NextReviewAt = &next
		c.UpdatedAt = reviewed
		return c
	})
	s.Require().NoError(err)
	s.Require().NotNil(card)
	s.Assert().Equal(2, card.ReviewCount)

	updated, err := s.repo.Get(ctx, "u1", "c1")
	s.Require().NoError(err)
	s.Assert().Equal(2, updated.ReviewCount)
	s.Assert().Equal(1, updated.CorrectCount)
	s.Assert().InDelta(0.3, updated.DifficultyScore, 1e-9)
	s.Require().NotNil(updated.NextReviewAt)
	s.Assert().True(next.Equal(*updated.NextReviewAt))
	s.Assert().True(reviewed.Equal(*updated.LastReviewedAt))

	var sessionID string
	var wasCorrect bool
	err = s.db.QueryRowContext(ctx, `SELECT session_id, was_correct FROM review_history WHERE flashcard_id = ?`, "c1").
		Scan(&sessionID, &wasCorrect)
	s.Require().NoError(err)
	s.Assert().Equal("s1", sessionID)
	s.Assert().False(wasCorrect)
}

func (s *FlashcardRepositorySuite) TestReviewMissingCard() {
	s.insert(testutil.Card("u1", "c1"))

	called := false
	card, err := s.repo.Review(context.Background(), "u2", models.ReviewHistory{FlashcardID: "c1", ReviewedAt: time.Now()},
		func(c models.Flashcard) models.Flashcard {
			called = true
			return c
		})
	s.Require().NoError(err)
	s.Assert().Nil(card)
	s.Assert().False(called)
}

func (s *FlashcardRepositorySuite) TestReviewOncePerSession() {
	ctx := context.Background()
	s.insert(testutil.Card("u1", "c1"))
	increment := func(c models.Flashcard) models.Flashcard {
		c.ReviewCount++
		return c
	}
	entry := models.ReviewHistory{FlashcardID: "c1", SessionID: "s1", ReviewedAt: time.Now()}

	_, err := s.repo.Review(ctx, "u1", entry, increment)
	s.Require().NoError(err)
	_, err = s.repo.Review(ctx, "u1", entry, increment)
	s.Assert().ErrorIs(err, repository.ErrDuplicateReview)

	// Reviews outside a session are never deduplicated.
	entry.SessionID = ""
	_, err = s.repo.Review(ctx, "u1", entry, increment)
	s.Require().NoError(err)
	_, err = s.repo.Review(ctx, "u1", entry, increment)
	s.Require().NoError(err)

	card, err := s.repo.Get(ctx, "u1", "c1")
	s.Require().NoError(err)
	s.Assert().Equal(3, card.ReviewCount)
}

func (s *FlashcardRepositorySuite) TestReviewRejectsInconsistentCounters() {
	ctx := context.Background()
	s.insert(testutil.Card("u1", "c1"))

	_, err := s.repo.Review(ctx, "u1", models.ReviewHistory{FlashcardID: "c1", ReviewedAt: time.Now()},
		func(c models.Flashcard) models.Flashcard {
			c.CorrectCount = 3
			c.ReviewCount = 1
			return c
		})
	s.Assert().Error(err)

	var n int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_history`).Scan(&n))
	s.Assert().Equal(0, n, "history rolled back with the card")
}

func (s *FlashcardRepositorySuite) TestListAndCount() {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		c := testutil.Card("u1", id)
		c.NoteID = "biology"
		c.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		s.insert(c)
	}
	other := testutil.Card("u1", "d")
	other.NoteID = "physics"
	other.CreatedAt = base.Add(10 * time.Hour)
	s.insert(other)
	s.insert(testutil.Card("u2", "e"))

	all, err := s.repo.List(ctx, models.FlashcardFilter{UserID: "u1"})
	s.Require().NoError(err)
	s.Assert().Equal([]string{"d", "c", "b", "a"}, cardIDs(all), "newest first")

	bio, err := s.repo.List(ctx, models.FlashcardFilter{UserID: "u1", NoteID: "biology", Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Assert().Equal([]string{"b", "a"}, cardIDs(bio))

	tail, err := s.repo.List(ctx, models.FlashcardFilter{UserID: "u1", Offset: 3})
	s.Require().NoError(err)
	s.Assert().Equal([]string{"a"}, cardIDs(tail))

	n, err := s.repo.Count(ctx, models.FlashcardFilter{UserID: "u1", NoteID: "biology"})
	s.Require().NoError(err)
	s.Assert().Equal(3, n)
}

func (s *FlashcardRepositorySuite) TestDue() {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	unscheduled := testutil.Card("u1", "unscheduled")
	unscheduled.DifficultyScore = 0.1
	s.insert(unscheduled)

	overdue := testutil.Card("u1", "overdue")
	overdue.DifficultyScore = 0.9
	overdue.ReviewCount = 1
	overdue.NextReviewAt = &past
	s.insert(overdue)

	later := testutil.Card("u1", "later")
	later.ReviewCount = 1
	later.NextReviewAt = &future
	s.insert(later)

	s.insert(testutil.Card("u2", "other-user"))

	cards, err := s.repo.Due(ctx, "u1", now, 0)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"overdue", "unscheduled"}, cardIDs(cards), "hardest first, future cards excluded")

	limited, err := s.repo.Due(ctx, "u1", now, 1)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"overdue"}, cardIDs(limited))
}

func (s *FlashcardRepositorySuite) TestDeleteCascadesHistory() {
	ctx := context.Background()
	s.insert(testutil.Card("u1", "c1"))
	_, err := s.repo.Review(ctx, "u1", models.ReviewHistory{FlashcardID: "c1", WasCorrect: true, ReviewedAt: time.Now()},
		func(c models.Flashcard) models.Flashcard { return c })
	s.Require().NoError(err)

	removed, err := s.repo.Delete(ctx, "u2", "c1")
	s.Require().NoError(err)
	s.Assert().False(removed, "other users cannot delete the card")

	removed, err = s.repo.Delete(ctx, "u1", "c1")
	s.Require().NoError(err)
	s.Assert().True(removed)

	var n int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_history`).Scan(&n))
	s.Assert().Equal(0, n)
}

func cardIDs(cards []models.Flashcard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestFlashcardRepositorySuite(t *testing.T) {
	suite.Run(t, new(FlashcardRepositorySuite))
}
