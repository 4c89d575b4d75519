package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/study"
)

type startSessionRequest struct {
	Mode    string `json:"mode" validate:"omitempty,oneof=review learning difficult"`
	NoteID  string `json:"note_id" validate:"omitempty,max=64"`
	Limit   int    `json:"limit" validate:"gte=0"`
	Shuffle bool   `json:"shuffle"`
}

type judgeRequest struct {
	WasCorrect *bool `json:"was_correct" validate:"required"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	mode, err := study.ParseMode(req.Mode)
	if err != nil {
		handleError(w, r, errors.NewInvalidInputError(err))
		return
	}

	view, err := s.StudyService.StartSession(r.Context(), userFromContext(r.Context()), services.StartOptions{
		Mode:    mode,
		NoteID:  req.NoteID,
		Limit:   req.Limit,
		Shuffle: req.Shuffle,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.GetSession(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleRevealCard(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.Reveal(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleJudgeCard(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	view, err := s.StudyService.Judge(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"), *req.WasCorrect)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.StudyService.EndSession(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStudyHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	summaries, err := s.StudyService.History(r.Context(), userFromContext(r.Context()), min(limit, maxPageSize))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"sessions": summaries})
}
