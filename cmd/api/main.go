package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"edupanel/internal/cache"
	"edupanel/internal/config"
	"edupanel/internal/database"
	"edupanel/internal/handlers"
	"edupanel/internal/jobs"
	"edupanel/internal/log"
	"edupanel/internal/queue"
	"edupanel/internal/repository"
	"edupanel/internal/server"
	"edupanel/internal/service"
	"edupanel/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel)

	ctx := context.Background()

	mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect mongo")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	if redisClient == nil {
		logger.Warn().Msg("redis not configured; login throttle and upload maintenance are off")
	}

	objectStore := storage.NewObjectStore(cfg.Storage)
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	accounts := repository.NewAccountRepository(mongoDB)
	lessons := repository.NewLessonRepository(mongoDB)
	subscriptions := repository.NewSubscriptionRepository(mongoDB)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure account indexes failed")
	}
	if err := lessons.EnsureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure lesson indexes failed")
	}

	pending := repository.NewUploadRegistry(redisClient)
	producer := queue.NewProducer(redisClient, cfg.Redis.Stream)
	limiter := cache.NewLimiter(redisClient, "login", cfg.Security.LoginAttempts, cfg.Security.LoginWindow)
	keys := storage.NewKeyMinter(cfg.Uploads.KeyPrefix)

	services := handlers.Services{
		Auth:     service.NewAuthService(accounts, subscriptions, limiter, cfg, logger),
		Devices:  service.NewDeviceService(accounts, logger),
		Lessons:  service.NewLessonService(lessons, pending, keys, cfg.Lessons.MaxVideos, logger),
		Uploads:  service.NewUploadService(objectStore, pending, producer, keys, cfg.Uploads, logger),
		Streams:  service.NewStreamService(objectStore),
		Database: mongoDB.Ping,
	}
	if redisClient != nil {
		services.Cache = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, services)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var scheduler *jobs.Scheduler
	if redisClient != nil {
		scheduler = jobs.NewScheduler(producer, cfg.Jobs, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, mongoDB, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *database.Mongo, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	if err := db.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("mongo close error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
