package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type createFlashcardRequest struct {
	NoteID   string `json:"note_id" validate:"omitempty,max=64"`
	Question string `json:"question" validate:"notblank,max=2000"`
	Answer   string `json:"answer" validate:"notblank,max=2000"`
}

type reviewRequest struct {
	WasCorrect *bool `json:"was_correct" validate:"required"`
}

type flashcardListResponse struct {
	Flashcards []models.Flashcard `json:"flashcards"`
	Total      int                `json:"total"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

func (s *Server) handleListFlashcards(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if limit == 0 {
		limit = defaultPageSize
	} else if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := models.FlashcardFilter{
		UserID: userFromContext(r.Context()),
		NoteID: r.URL.Query().Get("note_id"),
		Limit:  limit,
		Offset: offset,
	}
	cards, total, err := s.FlashcardService.ListFlashcards(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, flashcardListResponse{
		Flashcards: cards,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *Server) handleCreateFlashcard(w http.ResponseWriter, r *http.Request) {
	var req createFlashcardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.FlashcardService.CreateFlashcard(r.Context(), userFromContext(r.Context()), models.NewFlashcard{
		NoteID:   req.NoteID,
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleDueFlashcards(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if limit > maxPageSize {
		handleError(w, r, errors.NewValidationError("limit", "must not exceed 200"))
		return
	}

	cards, err := s.FlashcardService.DueFlashcards(r.Context(), userFromContext(r.Context()), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"flashcards": cards})
}

func (s *Server) handleGetFlashcard(w http.ResponseWriter, r *http.Request) {
	card, err := s.FlashcardService.GetFlashcard(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleReviewFlashcard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context()).WithFields(map[string]any{
		"flashcard_id": id,
		"was_correct":  *req.WasCorrect,
	})
	log.Debug("reviewing flashcard")

	card, err := s.FlashcardService.ReviewFlashcard(r.Context(), userFromContext(r.Context()), id, *req.WasCorrect)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("flashcard reviewed successfully")
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleDeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	if err := s.FlashcardService.DeleteFlashcard(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
