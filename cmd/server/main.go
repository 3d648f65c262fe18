package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/config"
	handler "github.com/changshize/fiction-tiktok/internal/delivery/http"
	"github.com/changshize/fiction-tiktok/internal/provider"
	"github.com/changshize/fiction-tiktok/internal/provider/elevenlabs"
	"github.com/changshize/fiction-tiktok/internal/provider/openai"
	"github.com/changshize/fiction-tiktok/internal/publisher"
	"github.com/changshize/fiction-tiktok/internal/repository/postgres"
	redisrepo "github.com/changshize/fiction-tiktok/internal/repository/redis"
	"github.com/changshize/fiction-tiktok/internal/storage"
	"github.com/changshize/fiction-tiktok/internal/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting fiction-tiktok API server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Connect to PostgreSQL
	ctx := context.Background()
	dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping PostgreSQL", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL")

	// Connect to Redis
	redisOpts, err := goredis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	rdb := goredis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to ping Redis", zap.Error(err))
	}
	logger.Info("Connected to Redis")

	// Initialize RabbitMQ publisher
	pub, err := publisher.NewRabbitMQPublisher(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize RabbitMQ publisher", zap.Error(err))
	}
	defer pub.Close()
	logger.Info("Connected to RabbitMQ")

	// Initialize repositories and artifact store
	jobRepo := postgres.NewJobRepository(dbPool)
	sourceRepo := postgres.NewSourceRepository(dbPool)
	statusCache := redisrepo.NewStatusCache(rdb)

	store, err := storage.NewStore(cfg.Generation.OutputDir)
	if err != nil {
		logger.Fatal("Failed to initialize artifact store", zap.Error(err))
	}

	// Speech backends are constructed here only to serve the voice catalog;
	// generation itself runs in the worker.
	openaiClient := openai.New(openai.Options{
		APIKey:  cfg.Providers.OpenAIAPIKey,
		BaseURL: cfg.Providers.OpenAIBaseURL,
		Timeout: cfg.Providers.RequestTimeout,
	})
	elevenClient := elevenlabs.New(elevenlabs.Options{
		APIKey:  cfg.Providers.ElevenLabsAPIKey,
		BaseURL: cfg.Providers.ElevenLabsBaseURL,
		Timeout: cfg.Providers.RequestTimeout,
	})
	selector := provider.NewSelector(provider.Backends{
		Speech: []provider.SpeechBackend{openaiClient, elevenClient},
	})

	// Initialize use cases
	createUC := usecase.NewCreateJobUsecase(jobRepo, sourceRepo, statusCache, pub, logger)
	usecases := handler.Usecases{
		Create: createUC,
		Batch:  usecase.NewBatchCreateUsecase(createUC, sourceRepo, logger),
		Get:    usecase.NewGetJobUsecase(jobRepo, logger),
		List:   usecase.NewListJobsUsecase(jobRepo, logger),
		Status: usecase.NewJobStatusUsecase(jobRepo, statusCache, logger),
		Reset:  usecase.NewResetJobUsecase(jobRepo, statusCache, pub, logger),
		Cancel: usecase.NewCancelJobUsecase(jobRepo, statusCache, logger),
		Delete: usecase.NewDeleteJobUsecase(jobRepo, statusCache, store, logger),
		Voices: usecase.NewListVoicesUsecase(selector, logger),
	}

	// Initialize router
	router := handler.NewRouter(usecases, logger,
		handler.DependencyCheck{Name: "postgres", Check: dbPool.Ping},
		handler.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}},
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}
