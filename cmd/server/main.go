package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/bank"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/database"
	"github.com/stemsi/exstem-quiz/internal/handler"
	"github.com/stemsi/exstem-quiz/internal/logger"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/repository"
	"github.com/stemsi/exstem-quiz/internal/router"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/timer"
	"github.com/stemsi/exstem-quiz/internal/validator"
	"github.com/stemsi/exstem-quiz/internal/worker"
)

const sweepInterval = time.Minute

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("results_enabled", cfg.ResultsEnabled).
		Msg("Starting ExStem Quiz")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Load Question Bank ────────────────────────────────────────────
	qb, err := bank.LoadOrDefault(cfg.QuestionBankPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionBankPath).Msg("Failed to load question bank")
	}
	log.Info().Str("title", qb.Title).Int("questions", len(qb.Questions)).Msg("Question bank loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// ─── Result Ledger (optional) ──────────────────────────────────────
	var (
		pool          *pgxpool.Pool
		rdb           *redis.Client
		queue         redis.Cmdable
		publisher     service.ResultPublisher = service.NopResultPublisher{}
		resultService *service.ResultService
		workerDone    = make(chan struct{})
	)

	if cfg.ResultsEnabled {
		pool, err = database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		queue = rdb

		resultRepo := repository.NewResultRepository(pool)
		publisher = service.NewRedisResultPublisher(rdb)
		resultService = service.NewResultService(resultRepo, rdb, log)

		resultWorker := worker.NewResultWorker(resultRepo, rdb, log)
		go func() {
			defer close(workerDone)
			resultWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	sessionService, err := service.NewSessionService(service.SessionOptions{
		Questions:    qb.Questions,
		ExamDuration: cfg.ExamDuration,
		IdleTimeout:  cfg.SessionIdle,
		Scheduler:    timer.TickerScheduler{},
		Publisher:    publisher,
		Log:          log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session service")
	}
	tokenService := service.NewTokenService(cfg)

	go sessionService.RunSweeper(workerCtx, sweepInterval)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session: handler.NewSessionHandler(sessionService, tokenService),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Bank: handler.NewBankHandler(model.BankInfo{
			Title:               qb.Title,
			QuestionCount:       sessionService.QuestionCount(),
			ExamDurationSeconds: sessionService.ExamDurationSeconds(),
		}),
		Result: handler.NewResultHandler(resultService, rdb, log),
		System: handler.NewSystemHandler(sessionService, queue, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	defer limiter.Stop()

	r := router.SetupRouter(tokenService, handlers, limiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop countdowns and close subscriber streams.
	sessionService.Shutdown()

	// 3. Stop background workers and wait for the result queue to drain.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Result worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
