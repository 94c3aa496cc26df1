package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/rewrite/internal/config"
	"github.com/benvon/rewrite/internal/database"
	"github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/queue"
	"github.com/benvon/rewrite/internal/services/ai"
	"github.com/benvon/rewrite/internal/services/evaluation"
	"github.com/benvon/rewrite/internal/telemetry"
	"github.com/benvon/rewrite/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.AsyncEnabled() {
		log.Fatalf("RABBITMQ_URL is required to run the worker")
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, telemetry.WorkerServiceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.Setup(ctx, cfg.OTELEnabled, telemetry.WorkerServiceName, cfg.OTELEndpoint)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}

	jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	if err := cfg.RequireOpenAI(); err != nil {
		zapLogger.Fatal("ai_provider_not_configured", zap.Error(err))
	}
	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry)
	provider, err := registry.GetProvider(cfg.AIProvider, map[string]string{
		"api_key":     cfg.OpenAIKey,
		"base_url":    cfg.AIBaseURL,
		"model":       cfg.AIModel,
		"timeout":     cfg.AITimeout.String(),
		"max_retries": strconv.Itoa(cfg.AIRetryMax),
		"debug":       strconv.FormatBool(debugMode),
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_ai_provider", zap.Error(err))
	}

	svc := evaluation.NewService(provider, database.NewEditRepository(db), zapLogger, evaluation.Options{
		Rate:        cfg.LLMRate,
		Burst:       cfg.LLMBurst,
		Concurrency: cfg.EvaluationConcurrency,
		CacheTTL:    cfg.EvaluationCacheTTL,
	})
	processor := workers.NewEvaluationProcessor(svc, jobQueue, zapLogger)

	gc := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
	go func() {
		if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()
	zapLogger.Info("started_dlq_garbage_collector",
		zap.Duration("interval", cfg.DLQGCInterval),
		zap.Duration("retention", cfg.DLQRetention),
	)

	msgs, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")
	workers.Run(ctx, processor, msgs, errs, cfg.RabbitMQPrefetch, zapLogger)
	zapLogger.Info("worker_stopped")
}
