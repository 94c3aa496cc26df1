package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/rewrite/api"
	"github.com/benvon/rewrite/internal/config"
	"github.com/benvon/rewrite/internal/database"
	"github.com/benvon/rewrite/internal/handlers"
	"github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/middleware"
	"github.com/benvon/rewrite/internal/queue"
	"github.com/benvon/rewrite/internal/review"
	"github.com/benvon/rewrite/internal/services/ai"
	"github.com/benvon/rewrite/internal/services/evaluation"
	"github.com/benvon/rewrite/internal/services/session"
	"github.com/benvon/rewrite/internal/telemetry"
	"github.com/benvon/rewrite/internal/tracking"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, telemetry.ServerServiceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.Setup(ctx, cfg.OTELEnabled, telemetry.ServerServiceName, cfg.OTELEndpoint)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
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
	zapLogger.Info("connected_to_database", zap.String("dialect", string(db.Dialect())))

	healthChecker := handlers.NewHealthChecker().AddCheck("database", db.HealthCheck)

	// Redis backs rate limiting and the tracked-text store when configured
	var rateStore limiter.Store
	var texts tracking.TextStore
	if cfg.RedisURL != "" {
		redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisLimiter.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		rateStore, err = redisLimiter.Store()
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
		}
		texts = tracking.NewRedisTextStore(redisLimiter.Client(), cfg.TextStoreTTL)
		healthChecker.AddCheck("redis", redisLimiter.Ping)
		zapLogger.Info("connected_to_redis")
	} else {
		rateStore = memory.NewStore()
		texts = tracking.NewMemoryTextStore(cfg.TextStoreTTL)
		zapLogger.Warn("redis_not_configured_using_in_memory_stores")
	}

	// The queue is optional; without it ?async=true answers 503
	var jobs handlers.JobEnqueuer
	if cfg.AsyncEnabled() {
		jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		jobs = jobQueue
		healthChecker.AddCheck("queue", jobQueue.HealthCheck)
	}

	issuer, err := session.NewIssuer(sessionSecret(cfg, zapLogger), cfg.BaseURL, cfg.SessionTTL)
	if err != nil {
		zapLogger.Fatal("failed_to_create_session_issuer", zap.Error(err))
	}

	provider, err := createAIProvider(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Fatal("failed_to_create_ai_provider", zap.Error(err))
	}

	editRepo := database.NewEditRepository(db)
	userEditRepo := database.NewUserEditRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	evaluator := evaluation.NewService(provider, editRepo, zapLogger, evaluation.Options{
		Rate:        cfg.LLMRate,
		Burst:       cfg.LLMBurst,
		Concurrency: cfg.EvaluationConcurrency,
		CacheTTL:    cfg.EvaluationCacheTTL,
	})
	tracker := tracking.NewTracker(texts, userEditRepo, zapLogger)

	sessionHandler := handlers.NewSessionHandler(issuer, zapLogger)
	essayHandler := handlers.NewEssayHandler(evaluator, jobs, zapLogger)
	editHandler := handlers.NewEditHandler(editRepo, userEditRepo, tracker, zapLogger,
		review.WithStrictCategories(cfg.StrictCategories),
		review.WithFallbackColor(cfg.HighlightFallbackColor),
	)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, outermost first
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServerServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, time.Minute)
	r.Use(corsReloader.Middleware())
	r.Use(middleware.RequestID)
	r.Use(middleware.MaxRequestSize(cfg.MaxRequestBytes))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Rate limiting applies to the API routes, not to health checks
	rateLimitReloader := middleware.NewRateLimitReloader(rateStore, ratelimitConfigRepo, "5-S", zapLogger, time.Minute)
	rateLimitMW := rateLimitReloader.Middleware()

	healthChecker.RegisterRoutes(r)
	r.HandleFunc("/version", handlers.VersionHandler(handlers.VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	})).Methods("GET")
	handlers.NewOpenAPIHandler(api.OpenAPI).RegisterRoutes(r)

	sessionRouter := r.NewRoute().Subrouter()
	sessionRouter.Use(rateLimitMW)
	sessionHandler.RegisterRoutes(sessionRouter)

	// A session is optional for plain evaluation and required for stored results
	essayRouter := r.NewRoute().Subrouter()
	essayRouter.Use(middleware.Session(issuer, false, zapLogger))
	essayRouter.Use(rateLimitMW)
	essayHandler.RegisterRoutes(essayRouter)

	editRouter := r.NewRoute().Subrouter()
	editRouter.Use(middleware.Session(issuer, true, zapLogger))
	editRouter.Use(rateLimitMW)
	editHandler.RegisterRoutes(editRouter)

	// CORS middleware has already answered preflights by the time this runs
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go corsReloader.Start(ctx)
	go rateLimitReloader.Start(ctx)

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// createAIProvider builds the configured provider through the registry
func createAIProvider(cfg *config.Config, log *zap.Logger, debugMode bool) (ai.Provider, error) {
	if err := cfg.RequireOpenAI(); err != nil {
		return nil, err
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry)

	return registry.GetProvider(cfg.AIProvider, map[string]string{
		"api_key":     cfg.OpenAIKey,
		"base_url":    cfg.AIBaseURL,
		"model":       cfg.AIModel,
		"timeout":     cfg.AITimeout.String(),
		"max_retries": strconv.Itoa(cfg.AIRetryMax),
		"debug":       strconv.FormatBool(debugMode),
	}, log)
}

// sessionSecret returns the configured signing secret, or a random one that
// invalidates every session on restart
func sessionSecret(cfg *config.Config, log *zap.Logger) string {
	if cfg.SessionSecret != "" {
		return cfg.SessionSecret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal("failed_to_generate_session_secret", zap.Error(err))
	}
	log.Warn("session_secret_not_configured_using_random_secret")
	return hex.EncodeToString(buf)
}
