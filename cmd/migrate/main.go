package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/config"
	"github.com/samirwankhede/restaurant-insights/internal/logger"
	"github.com/samirwankhede/restaurant-insights/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env, "migrate")
	defer func() { _ = log.Sync() }()

	version, err := store.Migrate(cfg.PostgresURL)
	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("schema up to date", zap.Uint("version", version))
}
