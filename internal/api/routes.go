package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/vytor/studyflash/internal/errors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(s.corsMiddleware())

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(userMiddleware)
		r.Use(timeoutMiddleware(30 * time.Second))

		r.Route("/flashcards", func(r chi.Router) {
			r.Get("/", s.handleListFlashcards)
			r.Post("/", s.handleCreateFlashcard)
			r.Get("/due", s.handleDueFlashcards)
			r.Get("/{id}", s.handleGetFlashcard)
			r.Patch("/{id}/review", s.handleReviewFlashcard)
			r.Delete("/{id}", s.handleDeleteFlashcard)
		})

		r.Route("/study", func(r chi.Router) {
			r.Get("/history", s.handleStudyHistory)
			r.Post("/sessions", s.handleStartSession)
			r.Get("/sessions/{id}", s.handleGetSession)
			r.Post("/sessions/{id}/reveal", s.handleRevealCard)
			r.Post("/sessions/{id}/judge", s.handleJudgeCard)
			r.Delete("/sessions/{id}", s.handleEndSession)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errors.NewNotFoundError("route", r.URL.Path))
	})
	return r
}

func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	origins := s.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", userIDHeader, requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}).Handler
}
