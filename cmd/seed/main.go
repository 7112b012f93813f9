package main

import (
	"context"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"storefront-auth/internal/config"
	"storefront-auth/internal/db"
	"storefront-auth/internal/logging"
	productrepo "storefront-auth/internal/repository/product"
	userrepo "storefront-auth/internal/repository/user"
	"storefront-auth/internal/seed"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := logging.Must(cfg.LogLevel).Named("seed")
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	err = seed.Apply(ctx,
		productrepo.NewPostgres(pool, logger),
		userrepo.NewPostgres(pool, logger),
		cfg.BcryptCost,
		logger,
	)
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}
