package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/study"
)

// StartOptions selects the deck for a new study session.
type StartOptions struct {
	Mode    study.Mode
	NoteID  string
	Limit   int
	Shuffle bool
}

// CardView is the card currently shown. Answer is only set once revealed.
type CardView struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// SessionView is what clients see of a live or just-finished session.
type SessionView struct {
	ID        string                 `json:"id"`
	Mode      study.Mode             `json:"mode"`
	Card      *CardView              `json:"card,omitempty"`
	Flipped   bool                   `json:"flipped"`
	Stats     study.Stats            `json:"stats"`
	StartedAt time.Time              `json:"started_at"`
	Summary   *models.SessionSummary `json:"summary,omitempty"`
}

// StudyService hosts live study sessions and serializes access to each one.
type StudyService interface {
	StartSession(ctx context.Context, userID string, opts StartOptions) (*SessionView, error)
	GetSession(ctx context.Context, userID, id string) (*SessionView, error)
	Reveal(ctx context.Context, userID, id string) (*SessionView, error)
	Judge(ctx context.Context, userID, id string, wasCorrect bool) (*SessionView, error)
	EndSession(ctx context.Context, userID, id string) error
	History(ctx context.Context, userID string, limit int) ([]models.SessionSummary, error)
	PruneIdle(maxIdle time.Duration) int
	ActiveSessions() int
}

type StudyConfig struct {
	DefaultDeckLimit int
	MaxDeckLimit     int
}

type liveSession struct {
	mu         sync.Mutex
	id         string
	userID     string
	mode       study.Mode
	session    *study.Session
	startedAt  time.Time
	lastActive time.Time
}

type studyService struct {
	flashcards repository.FlashcardRepository
	sessions   repository.SessionRepository
	queue      jobs.JobQueue
	cfg        StudyConfig
	now        func() time.Time
	newID      func() (string, error)

	mu   sync.RWMutex
	live map[string]*liveSession
}

// NewStudyService creates a new StudyService
func NewStudyService(
	flashcards repository.FlashcardRepository,
	sessions repository.SessionRepository,
	queue jobs.JobQueue,
	cfg StudyConfig,
) StudyService {
	if cfg.DefaultDeckLimit <= 0 {
		cfg.DefaultDeckLimit = 20
	}
	if cfg.MaxDeckLimit < cfg.DefaultDeckLimit {
		cfg.MaxDeckLimit = cfg.DefaultDeckLimit
	}
	return &studyService{
		flashcards: flashcards,
		sessions:   sessions,
		queue:      queue,
		cfg:        cfg,
		now:        time.Now,
		newID:      func() (string, error) { return gonanoid.New() },
		live:       make(map[string]*liveSession),
	}
}

func (s *studyService) StartSession(ctx context.Context, userID string, opts StartOptions) (*SessionView, error) {
	log := logger.FromContext(ctx)

	if opts.Mode == 0 {
		opts.Mode = study.Review
	}
	if !opts.Mode.IsValid() {
		return nil, errors.NewValidationError("mode", "must be one of review, learning, difficult")
	}
	limit := opts.Limit
	switch {
	case limit < 0 || limit > s.cfg.MaxDeckLimit:
		return nil, errors.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", s.cfg.MaxDeckLimit))
	case limit == 0:
		limit = s.cfg.DefaultDeckLimit
	}

	library, err := s.flashcards.List(ctx, models.FlashcardFilter{UserID: userID, NoteID: opts.NoteID})
	if err != nil {
		log.Error("failed to load flashcards for session: %v", err)
		return nil, errors.NewInternalError(err)
	}

	now := s.now().UTC()
	deck, err := study.SelectDeck(library, study.DeckOptions{
		Mode:    opts.Mode,
		Limit:   limit,
		Shuffle: opts.Shuffle,
		Now:     now,
	})
	if err != nil {
		return nil, mapStudyError(err)
	}

	session, err := study.New(deck)
	if err != nil {
		log.Debug("cannot start session: mode=%s, library=%d: %v", opts.Mode, len(library), err)
		return nil, mapStudyError(err)
	}

	id, err := s.newID()
	if err != nil {
		log.Error("failed to generate session id: %v", err)
		return nil, errors.NewInternalError(err)
	}

	ls := &liveSession{
		id:         id,
		userID:     userID,
		mode:       opts.Mode,
		session:    session,
		startedAt:  now,
		lastActive: now,
	}
	s.mu.Lock()
	s.live[id] = ls
	s.mu.Unlock()

	log.Info("study session started: id=%s, mode=%s, cards=%d", id, opts.Mode, session.Len())
	return ls.view(), nil
}

func (s *studyService) GetSession(ctx context.Context, userID, id string) (*SessionView, error) {
	ls, err := s.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.view(), nil
}

func (s *studyService) Reveal(ctx context.Context, userID, id string) (*SessionView, error) {
	ls, err := s.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.session.Reveal(); err != nil {
		return nil, mapStudyError(err)
	}
	ls.lastActive = s.now()
	return ls.view(), nil
}

// Judge records the judgement, forwards the review outcome, and on the last
// card stores the session summary and retires the session.
func (s *studyService) Judge(ctx context.Context, userID, id string, wasCorrect bool) (*SessionView, error) {
	log := logger.FromContext(ctx).WithField("session_id", id)

	ls, err := s.lookup(userID, id)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	view, err := s.judgeLocked(ctx, ls, wasCorrect)
	ls.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if view.Summary == nil {
		return view, nil
	}

	// s.mu is never taken while ls.mu is held.
	s.retire(ls)

	log.Info("study session completed: cards=%d, accuracy=%d, best_streak=%d",
		view.Summary.TotalCards, view.Summary.Accuracy, view.Summary.BestStreak)
	return view, nil
}

// judgeLocked runs with ls.mu held. The returned view carries a summary once
// the last card has been judged.
func (s *studyService) judgeLocked(ctx context.Context, ls *liveSession, wasCorrect bool) (*SessionView, error) {
	log := logger.FromContext(ctx).WithField("session_id", ls.id)

	outcome, err := ls.session.Judge(wasCorrect)
	if err != nil {
		return nil, mapStudyError(err)
	}
	now := s.now().UTC()
	ls.lastActive = now

	event := models.ReviewOutcome{
		SessionID:   ls.id,
		UserID:      ls.userID,
		FlashcardID: outcome.FlashcardID,
		WasCorrect:  outcome.WasCorrect,
		ReviewedAt:  now,
	}
	if err := s.queue.EnqueueOutcome(ctx, event); err != nil {
		log.Warn("failed to enqueue review outcome for flashcard %s: %v", outcome.FlashcardID, err)
	}

	view := ls.view()
	if !ls.session.IsComplete() {
		return view, nil
	}

	summary := ls.summary(now)
	view.Summary = &summary
	if err := s.queue.EnqueueSummary(ctx, summary); err != nil {
		log.Warn("failed to enqueue session summary: %v", err)
	}
	return view, nil
}

// retire removes ls from the registry unless it has already been replaced or removed.
func (s *studyService) retire(ls *liveSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live[ls.id] != ls {
		return false
	}
	delete(s.live, ls.id)
	return true
}

// EndSession abandons a session. Outcomes already judged stay recorded.
func (s *studyService) EndSession(ctx context.Context, userID, id string) error {
	ls, err := s.lookup(userID, id)
	if err != nil {
		return err
	}
	if !s.retire(ls) {
		return errors.NewNotFoundError("study session", id)
	}
	logger.FromContext(ctx).Info("study session ended: id=%s", id)
	return nil
}

func (s *studyService) History(ctx context.Context, userID string, limit int) ([]models.SessionSummary, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultDeckLimit
	}
	summaries, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list session history: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if summaries == nil {
		summaries = []models.SessionSummary{}
	}
	return summaries, nil
}

// PruneIdle drops sessions untouched for longer than maxIdle and reports how many went.
// The registry lock and a session lock are never held together.
func (s *studyService) PruneIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.RLock()
	candidates := make([]*liveSession, 0, len(s.live))
	for _, ls := range s.live {
		candidates = append(candidates, ls)
	}
	s.mu.RUnlock()

	pruned := 0
	for _, ls := range candidates {
		ls.mu.Lock()
		idle := ls.lastActive.Before(cutoff)
		ls.mu.Unlock()
		if idle && s.retire(ls) {
			pruned++
		}
	}
	if pruned > 0 {
		logger.Default().WithPrefix("study").Info("pruned %d idle study sessions", pruned)
	}
	return pruned
}

func (s *studyService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.live)
}

// lookup hides sessions owned by other users behind NOT_FOUND.
func (s *studyService) lookup(userID, id string) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.live[id]
	s.mu.RUnlock()
	if !ok || ls.userID != userID {
		return nil, errors.NewNotFoundError("study session", id)
	}
	return ls, nil
}

func (ls *liveSession) view() *SessionView {
	v := &SessionView{
		ID:        ls.id,
		Mode:      ls.mode,
		Flipped:   ls.session.Flipped(),
		Stats:     ls.session.Stats(),
		StartedAt: ls.startedAt,
	}
	if card, err := ls.session.Current(); err == nil {
		v.Card = &CardView{ID: card.ID, Question: card.Question}
		if v.Flipped {
			v.Card.Answer = card.Answer
		}
	}
	return v
}

func (ls *liveSession) summary(completedAt time.Time) models.SessionSummary {
	tally := ls.session.Tally()
	return models.SessionSummary{
		ID:          ls.id,
		UserID:      ls.userID,
		Mode:        ls.mode.String(),
		TotalCards:  ls.session.Len(),
		Correct:     tally.Correct,
		Incorrect:   tally.Incorrect,
		Accuracy:    ls.session.Accuracy(),
		BestStreak:  ls.session.BestStreak(),
		StartedAt:   ls.startedAt,
		CompletedAt: completedAt,
	}
}

func mapStudyError(err error) error {
	switch {
	case stderrors.Is(err, study.ErrInvalidInput):
		return errors.NewInvalidInputError(err)
	case stderrors.Is(err, study.ErrInvalidState):
		return errors.NewInvalidStateError(err)
	default:
		return errors.NewInternalError(err)
	}
}
