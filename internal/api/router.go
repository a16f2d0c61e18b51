package api

import (
	"log"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/composer-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/composer-api/internal/api/middleware"
	"github.com/Conceptual-Machines/composer-api/internal/config"
	"github.com/Conceptual-Machines/composer-api/internal/corpus"
	"github.com/Conceptual-Machines/composer-api/internal/metrics"
	"github.com/Conceptual-Machines/composer-api/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, orchestrator *coordination.Orchestrator, recorder *metrics.Recorder, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(recorder))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, orchestrator)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	var fetcher *corpus.Fetcher
	if cfg.CorpusBaseURL != "" {
		fetcher = corpus.NewFetcher(cfg.CorpusBaseURL, cfg.CorpusTimeout)
	}
	compositionService := services.NewCompositionService(db, orchestrator, cfg.MaxMeasures)
	trainingService := services.NewTrainingService(db, orchestrator, fetcher, cfg.PatternsPath)

	compositionHandler := handlers.NewCompositionHandler(compositionService, recorder)
	progressionHandler := handlers.NewProgressionHandler(orchestrator)
	trainingHandler := handlers.NewTrainingHandler(trainingService, recorder)
	patternsHandler := handlers.NewPatternsHandler(orchestrator)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(cfg))
	{
		v1.POST("/compositions", compositionHandler.Create)
		v1.GET("/compositions", compositionHandler.List)
		v1.GET("/compositions/:id", compositionHandler.Get)

		v1.GET("/plans", handlers.GetPlan)
		v1.POST("/motifs/develop", handlers.DevelopMotif)
		v1.POST("/progressions", progressionHandler.Generate)
		v1.GET("/patterns", patternsHandler.Get)

		training := v1.Group("/training")
		training.Use(apimiddleware.TrainerRequired())
		{
			training.POST("", trainingHandler.Train)
			training.POST("/corpus", trainingHandler.TrainCorpus)
			training.GET("", trainingHandler.Runs)
		}
	}

	return router
}

// authMiddleware picks the authentication scheme for AUTH_MODE
func authMiddleware(cfg *config.Config) gin.HandlerFunc {
	switch cfg.AuthMode {
	case config.AuthModeGateway:
		log.Println("🔐 Auth mode: gateway (trusting X-User-* headers)")
		return apimiddleware.GatewayAuth()
	case config.AuthModeJWT:
		if cfg.JWTSecret == "" {
			log.Fatal("❌ AUTH_MODE=jwt requires JWT_SECRET")
		}
		log.Println("🔐 Auth mode: jwt")
		return apimiddleware.JWTAuth(cfg.JWTSecret)
	default:
		log.Println("🔓 Auth mode: none")
		return apimiddleware.NoAuth()
	}
}
