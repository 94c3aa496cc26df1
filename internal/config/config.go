// Package config loads ReWrite settings from the environment into an explicit Config value.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL     string
	ServerPort      string
	BaseURL         string
	FrontendURL     string
	LogFormat       string
	EnableHSTS      bool
	ServerDebugMode bool
	WorkerDebugMode bool

	AIProvider string
	OpenAIKey  string
	AIModel    string
	AIBaseURL  string
	LLMRate    float64
	LLMBurst   int
	AITimeout  time.Duration
	AIRetryMax int

	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	DLQRetention     time.Duration
	DLQGCInterval    time.Duration

	SessionSecret string
	SessionTTL    time.Duration
	TextStoreTTL  time.Duration

	RequestTimeout        time.Duration
	MaxRequestBytes       int64
	EvaluationCacheTTL    time.Duration
	EvaluationConcurrency int

	HighlightFallbackColor string
	StrictCategories       bool

	OTELEnabled  bool
	OTELEndpoint string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	serverDebug := getEnvBool("SERVER_DEBUG_MODE", false)
	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", "sqlite://rewrite.db"),
		ServerPort:      getEnv("SERVER_PORT", "3001"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:3001"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: serverDebug,
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),

		AIProvider: getEnv("AI_PROVIDER", "openai"),
		OpenAIKey:  getEnv("OPENAI_API_KEY", ""),
		AIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		LLMRate:    getEnvFloat("LLM_REQUESTS_PER_SECOND", 2),
		LLMBurst:   getEnvInt("LLM_BURST", 5),
		AITimeout:  getEnvDuration("AI_TIMEOUT", 60*time.Second),
		AIRetryMax: getEnvInt("AI_RETRY_MAX", 3),

		RedisURL:         getEnv("REDIS_URL", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		DLQRetention:     getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),
		DLQGCInterval:    getEnvDuration("DLQ_GC_INTERVAL", time.Hour),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		TextStoreTTL:  getEnvDuration("TEXT_STORE_TTL", 24*time.Hour),

		RequestTimeout:        getEnvDuration("REQUEST_TIMEOUT", 90*time.Second),
		MaxRequestBytes:       int64(getEnvInt("MAX_REQUEST_BYTES", 1<<20)),
		EvaluationCacheTTL:    getEnvDuration("EVALUATION_CACHE_TTL", 30*time.Minute),
		EvaluationConcurrency: getEnvInt("EVALUATION_CONCURRENCY", 5),

		HighlightFallbackColor: getEnv("HIGHLIGHT_FALLBACK_COLOR", "lightgray"),
		StrictCategories:       getEnvBool("STRICT_CATEGORIES", serverDebug),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		return nil, fmt.Errorf("SERVER_PORT must be numeric, got %q", cfg.ServerPort)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	if cfg.LLMRate <= 0 {
		return nil, fmt.Errorf("LLM_REQUESTS_PER_SECOND must be positive")
	}
	if cfg.EvaluationConcurrency < 1 {
		return nil, fmt.Errorf("EVALUATION_CONCURRENCY must be at least 1")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	return cfg, nil
}

// RequireOpenAI returns an error when no OpenAI API key is configured.
func (c *Config) RequireOpenAI() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// AsyncEnabled reports whether evaluations can be queued to a worker.
func (c *Config) AsyncEnabled() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
