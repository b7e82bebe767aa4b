package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/auth"
	"github.com/deepv/driving-backend/internal/bank"
	"github.com/deepv/driving-backend/internal/config"
	"github.com/deepv/driving-backend/internal/database"
	"github.com/deepv/driving-backend/internal/engine"
	"github.com/deepv/driving-backend/internal/handler"
	"github.com/deepv/driving-backend/internal/logger"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/repository"
	"github.com/deepv/driving-backend/internal/router"
	"github.com/deepv/driving-backend/internal/storage"
	"github.com/deepv/driving-backend/internal/validator"
	"github.com/deepv/driving-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Driving Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Load Question Banks ───────────────────────────────────────────
	// Both banks are fetched BEFORE accepting traffic. A failed bank stays
	// absent (served as 503) rather than partially loaded; the server still
	// comes up so the other bank remains usable.
	loader := bank.NewLoader(log)
	banks := make(map[model.Bank][]model.Question, 2)
	for bankName, url := range map[model.Bank]string{
		model.BankQuick: cfg.QuickBankURL,
		model.BankFull:  cfg.FullBankURL,
	} {
		questions, err := loader.Load(ctx, bankName, url)
		if err != nil {
			log.Warn().Err(err).Str("bank", string(bankName)).Msg("Bank unavailable")
			continue
		}
		banks[bankName] = questions
	}
	corpus := bank.NewCorpus(banks)

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)

	// ─── Initialize Core ───────────────────────────────────────────────
	authService := auth.NewService(cfg)
	store := storage.NewRedisStore(rdb)
	historyQueue := worker.NewHistoryQueue(rdb, log)
	eng := engine.New(cfg, store, corpus, historyQueue, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userRepo),
		Question: handler.NewQuestionHandler(corpus),
		Progress: handler.NewProgressHandler(eng),
		Settings: handler.NewSettingsHandler(eng),
		Exam:     handler.NewExamHandler(eng, historyRepo),
		Sampler:  handler.NewSamplerHandler(eng),
		WS:       handler.NewWSHandler(eng, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	historyWorker := worker.NewHistoryWorker(historyRepo, rdb, log)
	go historyWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 2. Flush every user's debounced progress and cancel session timers.
	eng.Shutdown(shutdownCtx)

	// 3. Stop the history worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow the worker to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
