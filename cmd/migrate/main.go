package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"storefront-auth/internal/config"
	"storefront-auth/internal/db"
	"storefront-auth/internal/logging"
	"storefront-auth/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := logging.Must(cfg.LogLevel).Named("migrate")
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if *down {
		if err := migrate.Down(ctx, pool); err != nil {
			logger.Fatal("roll back migrations", zap.Error(err))
		}
		logger.Info("migrations rolled back")
		return
	}

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
}
