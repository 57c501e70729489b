// Command migrate rewrites numeric account ids to their string form.
package main

import (
	"context"
	"flag"
	"time"

	"edupanel/internal/config"
	"edupanel/internal/database"
	"edupanel/internal/log"
	"edupanel/internal/repository"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall migration deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.New(cfg.Environment, cfg.LogLevel).With().Str("component", "migrate").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer mongoDB.Close(context.Background())

	accounts := repository.NewAccountRepository(mongoDB)
	changed, err := accounts.NormalizeIDs(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("normalize account ids failed")
	}
	if err := accounts.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ensure account indexes failed")
	}

	logger.Info().Int64("updated", changed).Msg("account ids normalized")
}
