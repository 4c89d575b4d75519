package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/models"
)

// NewTestDB opens a private in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	return database.DB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Card builds a flashcard owned by userID with placeholder text.
func Card(userID, id string) models.Flashcard {
	return models.Flashcard{
		ID:        id,
		UserID:    userID,
		Question:  "question " + id,
		Answer:    "answer " + id,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
