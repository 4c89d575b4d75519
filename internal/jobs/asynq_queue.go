package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/worker"
)

const (
	TypeRecordOutcome = "study:outcome"
	TypeSaveSummary   = "study:summary"

	queueName = "study"
)

// NewOutcomeTask encodes a review outcome as an asynq task. Retries may
// redeliver an outcome that was already applied; the recorder drops those
// by (session_id, flashcard_id).
func NewOutcomeTask(outcome models.ReviewOutcome) (*asynq.Task, error) {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome payload: %w", err)
	}
	return asynq.NewTask(TypeRecordOutcome, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// NewSummaryTask encodes a finished session summary as an asynq task.
func NewSummaryTask(summary models.SessionSummary) (*asynq.Task, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshal summary payload: %w", err)
	}
	return asynq.NewTask(TypeSaveSummary, payload, asynq.MaxRetry(3), asynq.Timeout(30*time.Second)), nil
}

// AsynqQueue implements JobQueue on a Redis-backed asynq client.
type AsynqQueue struct {
	client *asynq.Client
	log    *logger.Logger
}

func NewAsynqQueue(redisURL string) (*AsynqQueue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &AsynqQueue{
		client: asynq.NewClient(opt),
		log:    logger.Default().WithPrefix("asynq"),
	}, nil
}

func (q *AsynqQueue) EnqueueOutcome(ctx context.Context, outcome models.ReviewOutcome) error {
	task, err := NewOutcomeTask(outcome)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task)
}

func (q *AsynqQueue) EnqueueSummary(ctx context.Context, summary models.SessionSummary) error {
	task, err := NewSummaryTask(summary)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task)
}

func (q *AsynqQueue) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := q.client.EnqueueContext(ctx, task, asynq.Queue(queueName))
	if err != nil {
		return fmt.Errorf("enqueue %s task: %w", task.Type(), err)
	}
	q.log.Debug("queued task: id=%s type=%s", info.ID, task.Type())
	return nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// AsynqWorker consumes study tasks from Redis.
type AsynqWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewAsynqWorker(redisURL string, concurrency int, recorder worker.OutcomeRecorder, store worker.SummaryStore) (*AsynqWorker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	log := logger.Default().WithPrefix("asynq")

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueName: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: &asynqLogger{log: log},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRecordOutcome, HandleOutcomeTask(recorder))
	mux.HandleFunc(TypeSaveSummary, HandleSummaryTask(store))

	return &AsynqWorker{server: server, mux: mux, log: log}, nil
}

// Start runs the consumer in the background.
func (w *AsynqWorker) Start() error {
	w.log.Info("starting asynq worker")
	return w.server.Start(w.mux)
}

func (w *AsynqWorker) Stop() {
	w.log.Info("stopping asynq worker")
	w.server.Shutdown()
}

// HandleOutcomeTask decodes an outcome task and records it. Malformed payloads are not retried.
func HandleOutcomeTask(recorder worker.OutcomeRecorder) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var outcome models.ReviewOutcome
		if err := json.Unmarshal(task.Payload(), &outcome); err != nil {
			return fmt.Errorf("unmarshal outcome payload: %v: %w", err, asynq.SkipRetry)
		}
		ctx = logger.NewContext(ctx, logger.FromContext(ctx).WithFields(map[string]any{
			"task":         task.Type(),
			"flashcard_id": outcome.FlashcardID,
		}))
		return recorder.RecordOutcome(ctx, outcome)
	}
}

// HandleSummaryTask decodes a summary task and stores it. Malformed payloads are not retried.
func HandleSummaryTask(store worker.SummaryStore) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var summary models.SessionSummary
		if err := json.Unmarshal(task.Payload(), &summary); err != nil {
			return fmt.Errorf("unmarshal summary payload: %v: %w", err, asynq.SkipRetry)
		}
		ctx = logger.NewContext(ctx, logger.FromContext(ctx).WithFields(map[string]any{
			"task":       task.Type(),
			"session_id": summary.ID,
		}))
		return store.Insert(ctx, summary)
	}
}

type asynqLogger struct {
	log *logger.Logger
}

func (l *asynqLogger) Debug(args ...any) { l.log.Debug("%s", fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...any)  { l.log.Info("%s", fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...any)  { l.log.Warn("%s", fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...any) { l.log.Error("%s", fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...any) { l.log.Error("%s", fmt.Sprint(args...)) }
