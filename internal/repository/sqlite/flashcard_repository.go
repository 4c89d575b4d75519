package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

var flashcardColumns = []string{
	"id", "user_id", "note_id", "question", "answer", "difficulty_score", "review_count",
	"correct_count", "last_reviewed_at", "next_review_at", "created_at", "updated_at",
}

type flashcardRepository struct {
	db *sql.DB
}

// NewFlashcardRepository creates a new FlashcardRepository implementation
func NewFlashcardRepository(db *sql.DB) repository.FlashcardRepository {
	return &flashcardRepository{db: db}
}

func scanFlashcard(row scanner) (models.Flashcard, error) {
	var c models.Flashcard
	var lastReviewed, nextReview sql.NullTime
	err := row.Scan(&c.ID, &c.UserID, &c.NoteID, &c.Question, &c.Answer, &c.DifficultyScore, &c.ReviewCount,
		&c.CorrectCount, &lastReviewed, &nextReview, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.LastReviewedAt = timePtr(lastReviewed)
	c.NextReviewAt = timePtr(nextReview)
	return c, nil
}

func (r *flashcardRepository) query(ctx context.Context, log *logger.Logger, q squirrel.SelectBuilder) ([]models.Flashcard, error) {
	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query flashcards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Flashcard
	for rows.Next() {
		c, err := scanFlashcard(rows)
		if err != nil {
			log.Error("failed to scan flashcard row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Insert stores a new card, assigning a UUID when the card has no ID yet.
func (r *flashcardRepository) Insert(ctx context.Context, c models.Flashcard) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	log.Debug("inserting flashcard: id=%s, user_id=%s", c.ID, c.UserID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO flashcards (id, user_id, note_id, question, answer, difficulty_score, review_count, correct_count,
                        last_reviewed_at, next_review_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, c.ID, c.UserID, c.NoteID, c.Question, c.Answer, c.DifficultyScore, c.ReviewCount, c.CorrectCount,
		nullTime(c.LastReviewedAt), nullTime(c.NextReviewAt), c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		log.Error("failed to insert flashcard: %v", err)
		return "", err
	}
	log.Debug("flashcard inserted: id=%s", c.ID)
	return c.ID, nil
}

// Get returns nil, nil when the card does not exist for the user.
func (r *flashcardRepository) Get(ctx context.Context, userID, id string) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("getting flashcard: id=%s, user_id=%s", id, userID)

	query, args, err := selectCard(userID, id).ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanFlashcard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("flashcard not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get flashcard: %v", err)
		return nil, err
	}
	return &c, nil
}

func selectCard(userID, id string) squirrel.SelectBuilder {
	return sqlBuilder.Select(flashcardColumns...).
		From("flashcards").
		Where(squirrel.Eq{"id": id, "user_id": userID})
}

func applyFilter(q squirrel.SelectBuilder, filter models.FlashcardFilter) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"user_id": filter.UserID})
	if filter.NoteID != "" {
		q = q.Where(squirrel.Eq{"note_id": filter.NoteID})
	}
	return q
}

// List returns the user's cards, newest first. A zero limit returns every card.
func (r *flashcardRepository) List(ctx context.Context, filter models.FlashcardFilter) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("listing flashcards: user_id=%s, note_id=%s, limit=%d, offset=%d",
		filter.UserID, filter.NoteID, filter.Limit, filter.Offset)

	q := applyFilter(sqlBuilder.Select(flashcardColumns...).From("flashcards"), filter).
		OrderBy("created_at DESC", "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			// SQLite requires LIMIT before OFFSET.
			q = q.Limit(uint64(1<<63 - 1))
		}
		q = q.Offset(uint64(filter.Offset))
	}

	cards, err := r.query(ctx, log, q)
	if err != nil {
		return nil, err
	}
	log.Debug("found %d flashcards", len(cards))
	return cards, nil
}

func (r *flashcardRepository) Count(ctx context.Context, filter models.FlashcardFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")

	query, args, err := applyFilter(sqlBuilder.Select("COUNT(*)").From("flashcards"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Error("failed to count flashcards: %v", err)
		return 0, err
	}
	return count, nil
}

// Due returns cards never scheduled or scheduled at or before now, hardest first.
func (r *flashcardRepository) Due(ctx context.Context, userID string, now time.Time, limit int) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("fetching due flashcards: user_id=%s, limit=%d", userID, limit)

	q := sqlBuilder.Select(flashcardColumns...).
		From("flashcards").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Or{
			squirrel.Eq{"next_review_at": nil},
			squirrel.LtOrEq{"next_review_at": now.UTC()},
		}).
		OrderBy("difficulty_score DESC", "next_review_at ASC", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	cards, err := r.query(ctx, log, q)
	if err != nil {
		return nil, err
	}
	log.Debug("found %d due flashcards", len(cards))
	return cards, nil
}

// Delete reports whether a card was removed. Review history goes with it.
func (r *flashcardRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("deleting flashcard: id=%s, user_id=%s", id, userID)

	res, err := r.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		log.Error("failed to delete flashcard: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Review serialises concurrent reviews of the same card: the read, the update
// and the history row share one transaction.
func (r *flashcardRepository) Review(ctx context.Context, userID string, entry models.ReviewHistory, fn repository.ReviewFunc) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("reviewing flashcard: id=%s, session_id=%s, was_correct=%t", entry.FlashcardID, entry.SessionID, entry.WasCorrect)

	query, args, err := selectCard(userID, entry.FlashcardID).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	var reviewed *models.Flashcard
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := scanFlashcard(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		if entry.SessionID != "" {
			var seen int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM review_history WHERE session_id = ? AND flashcard_id = ?`,
				entry.SessionID, entry.FlashcardID).Scan(&seen)
			if err != nil {
				return err
			}
			if seen > 0 {
				return repository.ErrDuplicateReview
			}
		}

		next := fn(current)
		if next.UpdatedAt.IsZero() {
			next.UpdatedAt = time.Now()
		}
		_, err = tx.ExecContext(ctx, `
UPDATE flashcards
SET difficulty_score = ?, review_count = ?, correct_count = ?,
    last_reviewed_at = ?, next_review_at = ?, updated_at = ?
WHERE id = ? AND user_id = ?
`, next.DifficultyScore, next.ReviewCount, next.CorrectCount,
			nullTime(next.LastReviewedAt), nullTime(next.NextReviewAt), next.UpdatedAt.UTC(), current.ID, current.UserID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO review_history (flashcard_id, session_id, was_correct, reviewed_at)
VALUES (?, ?, ?, ?)
`, current.ID, entry.SessionID, entry.WasCorrect, entry.ReviewedAt.UTC())
		if err != nil {
			return err
		}
		reviewed = &next
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateReview):
		log.Debug("review already recorded: id=%s, session_id=%s", entry.FlashcardID, entry.SessionID)
		return nil, err
	case err != nil:
		log.Error("failed to review flashcard: %v", err)
		return nil, err
	}
	return reviewed, nil
}
