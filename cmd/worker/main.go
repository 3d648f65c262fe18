package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/config"
	amqpdelivery "github.com/changshize/fiction-tiktok/internal/delivery/amqp"
	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/orchestrator"
	"github.com/changshize/fiction-tiktok/internal/pool"
	"github.com/changshize/fiction-tiktok/internal/provider"
	"github.com/changshize/fiction-tiktok/internal/provider/elevenlabs"
	"github.com/changshize/fiction-tiktok/internal/provider/ffmpeg"
	"github.com/changshize/fiction-tiktok/internal/provider/openai"
	"github.com/changshize/fiction-tiktok/internal/provider/stability"
	"github.com/changshize/fiction-tiktok/internal/repository/postgres"
	redisrepo "github.com/changshize/fiction-tiktok/internal/repository/redis"
	"github.com/changshize/fiction-tiktok/internal/storage"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting fiction-tiktok generation worker")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL
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
		logger.Fatal("Invalid Redis URL", zap.Error(err))
	}
	redisClient := goredis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Initialize repositories and artifact store
	jobRepo := postgres.NewJobRepository(dbPool)
	sourceRepo := postgres.NewSourceRepository(dbPool)
	statusCache := redisrepo.NewStatusCache(redisClient)

	store, err := storage.NewStore(cfg.Generation.OutputDir)
	if err != nil {
		logger.Fatal("Failed to initialize artifact store", zap.Error(err))
	}

	// Initialize generation backends. Unconfigured backends stay in the
	// selector but are skipped at selection time.
	openaiClient := openai.New(openai.Options{
		APIKey:  cfg.Providers.OpenAIAPIKey,
		BaseURL: cfg.Providers.OpenAIBaseURL,
		Timeout: cfg.Providers.RequestTimeout,
	})
	stabilityClient := stability.New(stability.Options{
		APIKey:  cfg.Providers.StabilityAPIKey,
		BaseURL: cfg.Providers.StabilityBaseURL,
		Timeout: cfg.Providers.RequestTimeout,
	})
	elevenClient := elevenlabs.New(elevenlabs.Options{
		APIKey:  cfg.Providers.ElevenLabsAPIKey,
		BaseURL: cfg.Providers.ElevenLabsBaseURL,
		Timeout: cfg.Providers.RequestTimeout,
	})

	var composer provider.Composer
	ffmpegComposer := ffmpeg.New(cfg.Providers.FFmpegPath, cfg.Providers.FFprobePath, logger)
	if ffmpegComposer.Configured() {
		composer = ffmpegComposer
	} else {
		logger.Warn("ffmpeg not found, video composition disabled",
			zap.String("ffmpeg", cfg.Providers.FFmpegPath),
			zap.String("ffprobe", cfg.Providers.FFprobePath),
		)
	}

	selector := provider.NewSelector(provider.Backends{
		Images:   []provider.ImageBackend{openaiClient, stabilityClient},
		Speech:   []provider.SpeechBackend{openaiClient, elevenClient},
		Composer: composer,
	})

	// Initialize the orchestrator
	orch := orchestrator.New(jobRepo, sourceRepo, statusCache, selector, store, logger)

	// Create buffered dispatch channel
	jobsChan := make(chan *domain.JobMessage, cfg.Worker.PoolSize*2)

	// Initialize AMQP consumer
	consumer, err := amqpdelivery.NewConsumer(cfg.RabbitMQ.URL, cfg.Worker.PoolSize, jobsChan, logger)
	if err != nil {
		logger.Fatal("Failed to initialize AMQP consumer", zap.Error(err))
	}
	defer consumer.Close()
	logger.Info("Connected to RabbitMQ")

	// Start worker pool
	workerPool := pool.NewWorkerPool(cfg.Worker.PoolSize, jobsChan, orch, logger)
	workerPool.Start(ctx)

	// Start AMQP consumer in a goroutine
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("AMQP consumer error", zap.Error(err))
			cancel()
		}
	}()

	// Start Prometheus metrics server
	go func() {
		metricsAddr := fmt.Sprintf(":%d", cfg.Worker.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics server listening", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()

	// Wait for workers to finish in-flight jobs
	workerPool.Stop()

	logger.Info("Worker stopped")
}
