package v1

import (
	"net/http"
	"time"

	"food-expose-backend/config"
	"food-expose-backend/internal/delivery/http/middleware"
	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/internal/usecase"
	"food-expose-backend/pkg/metrics"
	"food-expose-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC    domain.AuthUsecase
	QuizUC    domain.QuizUsecase
	ScanUC    domain.ScanUsecase
	ProfileUC domain.ProfileUsecase
	HealthUC  usecase.HealthUsecase
	Gate      domain.GateController
	Config    *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}

	cfg := deps.Config
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second

	r := gin.New()

	r.Use(middleware.CORSMiddleware(cfg.FrontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", deps.HealthUC.Check(c.Request.Context()))
	})
	if cfg.MetricsEnabled {
		v1.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := v1.Group("")
	api.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalThreshold, window)))
	{
		NewAuthHandler(api, deps.AuthUC,
			middleware.RateLimitMiddleware(middleware.AuthRateLimitConfig(cfg.RateLimitAuthThreshold, window)))
		NewGateHandler(api, deps.Gate)
	}

	quiz := api.Group("")
	quiz.Use(middleware.RequireGate(deps.Gate, domain.GateShowQuiz))
	NewQuizHandler(quiz, deps.QuizUC)

	mainStack := api.Group("")
	mainStack.Use(middleware.RequireGate(deps.Gate, domain.GateShowMain))
	{
		NewScanHandler(mainStack, deps.ScanUC)
		NewProfileHandler(mainStack, deps.ProfileUC)
	}

	return r
}
