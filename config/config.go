package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Completion store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Port        string
	FrontendURL string
	LogLevel    string
	// Supabase Auth (identity provider)
	SupabaseUrl       string
	SupabaseKey       string
	SupabaseJWTSecret string
	// Completion Store
	CompletionStore     string // memory | redis | postgres
	CompletionNamespace string
	DBUrl               string
	KVTable             string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Open Food Facts
	OFFBaseURL        string
	OFFUserAgent      string
	OFFRatePerMinute  int
	OFFTimeoutSeconds int
	// Quiz
	QuizBankPath string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitAuthThreshold   int
	RateLimitGlobalThreshold int
	// Sign-in lockout (needs Redis)
	SignInMaxAttempts          int
	SignInAttemptWindowMinutes int
	SignInBlockMinutes         int
	// Profile
	HistoryLimit int
	// Observability
	MetricsEnabled bool
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject env directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:8081"), "/"),
		// Trailing slash would produce ".co//auth"
		SupabaseUrl:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:       getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", getEnv("SUPABASE_JWT_KEY", "")),
		// Completion Store
		CompletionStore:     strings.ToLower(getEnv("COMPLETION_STORE", StoreMemory)),
		CompletionNamespace: getEnv("COMPLETION_NAMESPACE", "food-expose"),
		DBUrl:               getEnv("DATABASE_URL", ""),
		KVTable:             getEnv("KV_TABLE", "app_kv"),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Open Food Facts asks clients to stay under 100 product reads per minute
		OFFBaseURL:        strings.TrimRight(getEnv("OFF_BASE_URL", "https://world.openfoodfacts.org"), "/"),
		OFFUserAgent:      getEnv("OFF_USER_AGENT", "FoodExpose/1.0 (support@foodexpose.app)"),
		OFFRatePerMinute:  getEnvInt("OFF_RATE_PER_MINUTE", 100),
		OFFTimeoutSeconds: getEnvInt("OFF_TIMEOUT_SECONDS", 0), // 0 = no timeout
		QuizBankPath:      getEnv("QUIZ_BANK_PATH", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitAuthThreshold:   getEnvInt("RATE_LIMIT_AUTH_THRESHOLD", 10),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100),
		// Sign-in lockout
		SignInMaxAttempts:          getEnvInt("SIGNIN_MAX_ATTEMPTS", 5),
		SignInAttemptWindowMinutes: getEnvInt("SIGNIN_ATTEMPT_WINDOW_MINUTES", 15),
		SignInBlockMinutes:         getEnvInt("SIGNIN_BLOCK_MINUTES", 15),
		// Profile and observability
		HistoryLimit:   getEnvInt("HISTORY_LIMIT", 50),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	switch cfg.CompletionStore {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		log.Printf("WARNING: unknown COMPLETION_STORE %q, using %s", cfg.CompletionStore, StoreMemory)
		cfg.CompletionStore = StoreMemory
	}

	if cfg.SupabaseUrl == "" {
		log.Println("WARNING: SUPABASE_URL is missing. Sign-in will fail.")
	}

	if cfg.CompletionStore == StorePostgres && cfg.DBUrl == "" {
		log.Println("WARNING: COMPLETION_STORE=postgres but DATABASE_URL is missing.")
	}

	if cfg.CompletionStore == StoreRedis && cfg.UpstashRedisURL == "" {
		log.Println("WARNING: COMPLETION_STORE=redis but UPSTASH_REDIS_URL is missing.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
