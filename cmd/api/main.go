package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-expose-backend/config"
	_ "food-expose-backend/docs" // Important for Swagger
	v1 "food-expose-backend/internal/delivery/http/v1"
	"food-expose-backend/internal/domain"
	"food-expose-backend/internal/repository/memory"
	"food-expose-backend/internal/repository/postgres"
	"food-expose-backend/internal/repository/redisstore"
	"food-expose-backend/internal/usecase"
	"food-expose-backend/pkg/auth"
	"food-expose-backend/pkg/database"
	"food-expose-backend/pkg/logger"
	"food-expose-backend/pkg/openfoodfacts"
	"food-expose-backend/pkg/quizbank"
	"food-expose-backend/pkg/redis"
	"food-expose-backend/pkg/security"
	"food-expose-backend/pkg/supabase"
	"food-expose-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

type historyStore interface {
	domain.ScanHistoryRepository
	usecase.Pinger
}

// @title           Food Expose API
// @version         1.0
// @description     Session gate, onboarding quiz and barcode nutrition lookup.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting food expose backend", "port", cfg.Port, "completion_store", cfg.CompletionStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Redis (completion store and/or rate limiting)
	if cfg.UpstashRedisURL != "" {
		if err := redis.Initialize(redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
			logger.Log.Warn("Redis unavailable, rate limiting falls back to memory", "error", err)
		} else {
			defer redis.Close()
		}
	}

	// 4. Setup Database (optional)
	var dbPool *pgxpool.Pool
	if cfg.DBUrl != "" {
		dbPool, err = database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			logger.Log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
	}

	// 5. Setup Repositories
	store, err := newCompletionStore(ctx, cfg, dbPool)
	if err != nil {
		logger.Log.Error("Failed to set up completion store", "error", err)
		os.Exit(1)
	}

	var history historyStore = memory.NewScanHistoryRepository()
	if dbPool != nil {
		if err := postgres.EnsureScanHistorySchema(ctx, dbPool); err != nil {
			logger.Log.Error("Failed to prepare scan history table", "error", err)
			os.Exit(1)
		}
		history = postgres.NewScanHistoryRepository(dbPool)
	}

	// 6. Setup Identity Provider
	var verifier *auth.Verifier
	if cfg.SupabaseUrl != "" {
		jwksProvider := auth.NewProvider(cfg.SupabaseUrl + "/auth/v1/.well-known/jwks.json")
		verifier = auth.NewVerifier(cfg.SupabaseJWTSecret, jwksProvider)
	}
	sessions := supabase.NewSessionProvider(supabase.Config{
		URL:     cfg.SupabaseUrl,
		AnonKey: cfg.SupabaseKey,
	}, verifier, logger.Log)

	// 7. Setup Nutrition Lookup
	off := openfoodfacts.NewClient(openfoodfacts.Config{
		BaseURL:       cfg.OFFBaseURL,
		UserAgent:     cfg.OFFUserAgent,
		RatePerMinute: cfg.OFFRatePerMinute,
		Timeout:       time.Duration(cfg.OFFTimeoutSeconds) * time.Second,
	})

	bank, err := quizbank.Load(cfg.QuizBankPath)
	if err != nil {
		logger.Log.Error("Failed to load question bank", "path", cfg.QuizBankPath, "error", err)
		os.Exit(1)
	}

	// 8. Setup UseCases
	validate := validator.New()
	validation.RegisterValidators(validate)

	onboardingUC := usecase.NewOnboardingUsecase(store)
	gate := usecase.NewGateController(sessions, onboardingUC, logger.Log)
	gate.Start(ctx)
	defer gate.Stop()

	audit := security.NewProductionAuditLogger("food-expose-backend")
	defer audit.Sync()
	tracker := security.NewLoginTracker(redis.Client(), security.LoginTrackerConfig{
		MaxAttempts:   cfg.SignInMaxAttempts,
		AttemptWindow: time.Duration(cfg.SignInAttemptWindowMinutes) * time.Minute,
		BlockDuration: time.Duration(cfg.SignInBlockMinutes) * time.Minute,
	}, audit)

	authUC := usecase.NewAuthUsecase(sessions, validate, tracker, logger.Log)
	quizUC := usecase.NewQuizUsecase(bank, onboardingUC, gate, logger.Log)
	scanUC := usecase.NewScanUsecase(off, off, history, gate, logger.Log)
	profileUC := usecase.NewProfileUsecase(gate, onboardingUC, history, cfg.HistoryLimit, logger.Log)
	healthUC := usecase.NewHealthUsecase(store, history, gate)

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:    authUC,
		QuizUC:    quizUC,
		ScanUC:    scanUC,
		ProfileUC: profileUC,
		HealthUC:  healthUC,
		Gate:      gate,
		Config:    cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

func newCompletionStore(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (domain.CompletionStore, error) {
	switch cfg.CompletionStore {
	case config.StoreRedis:
		client := redis.Client()
		if client == nil {
			return nil, errors.New("COMPLETION_STORE=redis requires a reachable UPSTASH_REDIS_URL")
		}
		return redisstore.NewCompletionStore(client, cfg.CompletionNamespace), nil
	case config.StorePostgres:
		if db == nil {
			return nil, errors.New("COMPLETION_STORE=postgres requires DATABASE_URL")
		}
		if err := postgres.EnsureCompletionSchema(ctx, db, cfg.KVTable); err != nil {
			return nil, err
		}
		return postgres.NewCompletionStore(db, cfg.KVTable, cfg.CompletionNamespace), nil
	default:
		logger.Log.Warn("Using in-memory completion store; quiz completion is lost on restart")
		return memory.NewCompletionStore(cfg.CompletionNamespace), nil
	}
}
