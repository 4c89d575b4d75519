package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/studyflash/internal/api"
	"github.com/vytor/studyflash/internal/config"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("StudyFlash Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("outcome_worker_count=%d", cfg.OutcomeWorkerCount)
	log.Debug("outcome_queue_size=%d", cfg.OutcomeQueueSize)
	log.Debug("default_deck_limit=%d max_deck_limit=%d", cfg.DefaultDeckLimit, cfg.MaxDeckLimit)
	log.Debug("session_idle_timeout=%s", cfg.SessionIdleTimeout)
	log.Debug("redis_enabled=%t", cfg.RedisURL != "")

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	flashcardRepo := sqlite.NewFlashcardRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)
	flashcardService := services.NewFlashcardService(flashcardRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outcomes go through Redis when configured, otherwise an in-process pool.
	var (
		queue    jobs.JobQueue
		shutdown []func()
	)
	if cfg.RedisURL != "" {
		asynqQueue, err := jobs.NewAsynqQueue(cfg.RedisURL)
		if err != nil {
			log.Error("failed to create asynq queue: %v", err)
			os.Exit(1)
		}
		asynqWorker, err := jobs.NewAsynqWorker(cfg.RedisURL, cfg.OutcomeWorkerCount, flashcardService, sessionRepo)
		if err != nil {
			log.Error("failed to create asynq worker: %v", err)
			os.Exit(1)
		}
		if err := asynqWorker.Start(); err != nil {
			log.Error("failed to start asynq worker: %v", err)
			os.Exit(1)
		}
		queue = asynqQueue
		shutdown = append(shutdown, asynqWorker.Stop, func() { _ = asynqQueue.Close() })
	} else {
		outcomePool := worker.NewPool("outcomes", cfg.OutcomeWorkerCount, cfg.OutcomeQueueSize)
		outcomePool.Start(ctx)
		queue = jobs.NewWorkerQueue(outcomePool, flashcardService, sessionRepo)
		shutdown = append(shutdown, outcomePool.Stop)
	}

	studyService := services.NewStudyService(flashcardRepo, sessionRepo, queue, services.StudyConfig{
		DefaultDeckLimit: cfg.DefaultDeckLimit,
		MaxDeckLimit:     cfg.MaxDeckLimit,
	})
	go pruneIdleSessions(ctx, studyService, cfg.SessionIdleTimeout)

	srv := &api.Server{
		FlashcardService:   flashcardService,
		StudyService:       studyService,
		DB:                 database,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Drain queued outcomes before the database closes.
	log.Debug("stopping outcome processing")
	for _, fn := range shutdown {
		fn()
	}
	cancel()

	log.Info("===========================================")
	log.Info("StudyFlash Server Stopped (%d live sessions discarded)", studyService.ActiveSessions())
	log.Info("===========================================")
}

func pruneIdleSessions(ctx context.Context, svc services.StudyService, maxIdle time.Duration) {
	ticker := time.NewTicker(max(maxIdle/4, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.PruneIdle(maxIdle)
		}
	}
}
