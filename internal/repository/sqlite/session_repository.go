package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Insert(ctx context.Context, s models.SessionSummary) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("inserting session summary: id=%s, user_id=%s, total=%d, accuracy=%d", s.ID, s.UserID, s.TotalCards, s.Accuracy)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO study_sessions (id, user_id, mode, total_cards, correct, incorrect, accuracy, best_streak, started_at, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, s.ID, s.UserID, s.Mode, s.TotalCards, s.Correct, s.Incorrect, s.Accuracy, s.BestStreak, s.StartedAt.UTC(), s.CompletedAt.UTC())
	if err != nil {
		log.Error("failed to insert session summary: %v", err)
	}
	return err
}

// ListByUser returns the user's completed sessions, most recent first.
func (r *sessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.SessionSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("listing session summaries: user_id=%s, limit=%d", userID, limit)

	q := sqlBuilder.Select(
		"id", "user_id", "mode", "total_cards", "correct", "incorrect", "accuracy", "best_streak",
		"started_at", "completed_at",
	).From("study_sessions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("completed_at DESC", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query session summaries: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.Mode, &s.TotalCards, &s.Correct, &s.Incorrect, &s.Accuracy,
			&s.BestStreak, &s.StartedAt, &s.CompletedAt); err != nil {
			log.Error("failed to scan session summary row: %v", err)
			return nil, err
		}
		out = append(out, s)
	}
	log.Debug("found %d session summaries", len(out))
	return out, rows.Err()
}
