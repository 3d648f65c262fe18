package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/delivery/http/middleware"
	"github.com/changshize/fiction-tiktok/internal/usecase"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Usecases bundles the application services exposed over HTTP.
type Usecases struct {
	Create *usecase.CreateJobUsecase
	Batch  *usecase.BatchCreateUsecase
	Get    *usecase.GetJobUsecase
	List   *usecase.ListJobsUsecase
	Status *usecase.JobStatusUsecase
	Reset  *usecase.ResetJobUsecase
	Cancel *usecase.CancelJobUsecase
	Delete *usecase.DeleteJobUsecase
	Voices *usecase.ListVoicesUsecase
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(uc Usecases, logger *zap.Logger, checks ...DependencyCheck) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(logger))

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	v1 := router.Group("/api/v1")
	v1.Use(middleware.BodySizeLimit(maxBodyBytes))
	{
		healthHandler := NewHealthHandler(logger, checks...)
		v1.GET("/health", healthHandler.Health)

		jobHandler := NewJobHandler(uc.Create, uc.Batch, uc.Get, uc.List, uc.Reset, uc.Cancel, uc.Delete, logger)
		v1.POST("/jobs", jobHandler.Create)
		v1.POST("/jobs/batch", jobHandler.BatchCreate)
		v1.GET("/jobs", jobHandler.List)
		v1.GET("/jobs/:id", jobHandler.GetByID)
		v1.POST("/jobs/:id/reset", jobHandler.Reset)
		v1.POST("/jobs/:id/cancel", jobHandler.Cancel)
		v1.DELETE("/jobs/:id", jobHandler.Delete)

		statusHandler := NewStatusHandler(uc.Status, logger)
		v1.GET("/jobs/:id/status", statusHandler.Status)

		// WebSocket for real-time updates
		streamHandler := NewStreamHandler(uc.Status, logger)
		v1.GET("/jobs/:id/stream", streamHandler.Stream)

		voiceHandler := NewVoiceHandler(uc.Voices, logger)
		v1.GET("/voices", voiceHandler.List)
	}

	return router
}
