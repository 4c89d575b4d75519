package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/testutil"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

type testEnv struct {
	handler http.Handler
	queue   *mocks.MockJobQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { db.Close() })

	cards := sqlite.NewFlashcardRepository(db)
	queue := new(mocks.MockJobQueue)
	srv := &Server{
		FlashcardService: services.NewFlashcardService(cards),
		StudyService: services.NewStudyService(cards, sqlite.NewSessionRepository(db), queue, services.StudyConfig{
			DefaultDeckLimit: 20,
			MaxDeckLimit:     100,
		}),
		DB: db,
	}
	return &testEnv{handler: srv.Routes(), queue: queue}
}

func (e *testEnv) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (e *testEnv) createCard(t *testing.T, userID, question string) models.Flashcard {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/flashcards", userID,
		`{"question":"`+question+`","answer":"answer to `+question+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Flashcard](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return stderrors.New("closed") }

func TestReadyz_DatabaseDown(t *testing.T) {
	srv := &Server{DB: failingPinger{}}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UNAVAILABLE", decode[errorResponse](t, rec).Error.Code)
}

func TestAPI_RequiresUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/flashcards", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[errorResponse](t, rec).Error.Code)
}

func TestFlashcards_CreateListGetDelete(t *testing.T) {
	env := newTestEnv(t)
	card := env.createCard(t, "u1", "What is ATP")
	env.createCard(t, "u1", "What is DNA")
	env.createCard(t, "u2", "Not mine")

	rec := env.do(t, http.MethodGet, "/api/flashcards?limit=1", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[flashcardListResponse](t, rec)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Flashcards, 1)
	assert.Equal(t, 1, list.Limit)

	rec = env.do(t, http.MethodGet, "/api/flashcards/"+card.ID, "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What is ATP", decode[models.Flashcard](t, rec).Question)

	rec = env.do(t, http.MethodGet, "/api/flashcards/"+card.ID, "u2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/flashcards/"+card.ID, "u1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/flashcards/"+card.ID, "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlashcards_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/flashcards", "u1", `{"question":"   ","answer":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Message, "question cannot be blank")
	assert.Contains(t, body.Error.Message, "answer cannot be blank")

	rec = env.do(t, http.MethodPost, "/api/flashcards", "u1", `{"question":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode[errorResponse](t, rec).Error.Code)

	rec = env.do(t, http.MethodPost, "/api/flashcards", "u1", `{"question":"q","answer":"a","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlashcards_ReviewAndDue(t *testing.T) {
	env := newTestEnv(t)
	card := env.createCard(t, "u1", "Mitochondria")

	rec := env.do(t, http.MethodGet, "/api/flashcards/due", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[map[string][]models.Flashcard](t, rec)
	assert.Len(t, due["flashcards"], 1, "never-reviewed cards are due")

	rec = env.do(t, http.MethodPatch, "/api/flashcards/"+card.ID+"/review", "u1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "was_correct is required")

	rec = env.do(t, http.MethodPatch, "/api/flashcards/"+card.ID+"/review", "u1", `{"was_correct":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reviewed := decode[models.Flashcard](t, rec)
	assert.Equal(t, 1, reviewed.ReviewCount)
	assert.Equal(t, 1, reviewed.CorrectCount)
	require.NotNil(t, reviewed.NextReviewAt)

	rec = env.do(t, http.MethodGet, "/api/flashcards/due", "u1", "")
	due = decode[map[string][]models.Flashcard](t, rec)
	assert.Empty(t, due["flashcards"], "reviewed card is scheduled in the future")
}

func TestStudySession_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"one", "two", "three"} {
		env.createCard(t, "u1", q)
	}
	env.queue.On("EnqueueOutcome", mock.Anything, mock.Anything).Return(nil)
	env.queue.On("EnqueueSummary", mock.Anything, mock.MatchedBy(func(s models.SessionSummary) bool {
		return s.Accuracy == 67 && s.TotalCards == 3
	})).Return(nil)

	rec := env.do(t, http.MethodPost, "/api/study/sessions", "u1", `{"mode":"review"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[services.SessionView](t, rec)
	require.NotEmpty(t, view.ID)
	assert.Equal(t, 3, view.Stats.Total)
	require.NotNil(t, view.Card)
	assert.Empty(t, view.Card.Answer)

	base := "/api/study/sessions/" + view.ID
	rec = env.do(t, http.MethodPost, base+"/judge", "u1", `{"was_correct":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE", decode[errorResponse](t, rec).Error.Code)

	for _, correct := range []string{"true", "false", "true"} {
		rec = env.do(t, http.MethodPost, base+"/reveal", "u1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[services.SessionView](t, rec).Card.Answer)

		rec = env.do(t, http.MethodPost, base+"/judge", "u1", `{"was_correct":`+correct+`}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	final := decode[services.SessionView](t, rec)
	assert.True(t, final.Stats.Complete)
	assert.Equal(t, 67, final.Stats.Accuracy)
	require.NotNil(t, final.Summary)

	rec = env.do(t, http.MethodGet, base, "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env.queue.AssertExpectations(t)
}

func TestStudySession_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/study/sessions", "u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
	assert.Contains(t, body.Error.Message, "cannot start a session with zero cards")

	rec = env.do(t, http.MethodPost, "/api/study/sessions", "u1", `{"mode":"cramming"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorResponse](t, rec).Error.Code)

	env.createCard(t, "u1", "solo")
	rec = env.do(t, http.MethodPost, "/api/study/sessions", "u1", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode[services.SessionView](t, rec)

	rec = env.do(t, http.MethodGet, "/api/study/sessions/"+view.ID, "u2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "other users cannot see the session")

	rec = env.do(t, http.MethodDelete, "/api/study/sessions/"+view.ID, "u1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStartSession_EmptyChunkedBody(t *testing.T) {
	env := newTestEnv(t)
	env.createCard(t, "u1", "solo")

	req := httptest.NewRequest(http.MethodPost, "/api/study/sessions", io.NopCloser(strings.NewReader("")))
	req.ContentLength = -1
	req.Header.Set(userIDHeader, "u1")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[services.SessionView](t, rec)
	assert.Equal(t, "review", view.Mode.String())
	assert.Equal(t, 1, view.Stats.Total)

	rec = env.do(t, http.MethodPost, "/api/study/sessions", "u1", `{"mode":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "malformed bodies are still rejected")
}

func TestStudyHistory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/study/history?limit=5", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/study/history?limit=-1", "u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := &Server{CORSAllowedOrigins: []string{"https://app.example"}}
	req := httptest.NewRequest(http.MethodOptions, "/api/flashcards", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
