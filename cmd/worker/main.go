package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"edupanel/internal/cache"
	"edupanel/internal/config"
	"edupanel/internal/database"
	"edupanel/internal/log"
	"edupanel/internal/queue"
	"edupanel/internal/repository"
	"edupanel/internal/storage"
	"edupanel/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	if client == nil {
		logger.Fatal().Msg("redis.addr is required for the worker")
	}
	defer client.Close()

	mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer mongoDB.Close(context.Background())

	processor := tasks.NewProcessor(
		storage.NewObjectStore(cfg.Storage),
		repository.NewLessonRepository(mongoDB),
		repository.NewUploadRegistry(client),
		repository.NewSubscriptionRepository(mongoDB),
		cfg.Uploads.OrphanTTL,
		logger,
	)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Jobs.ClaimInterval,
		cfg.Jobs.MaxDeliveries,
		logger,
		processor,
	)

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
