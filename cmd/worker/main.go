package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/config"
	kafkax "github.com/samirwankhede/restaurant-insights/internal/kafka"
	"github.com/samirwankhede/restaurant-insights/internal/logger"
	redisx "github.com/samirwankhede/restaurant-insights/internal/redis"
	"github.com/samirwankhede/restaurant-insights/internal/service/ingest"
	"github.com/samirwankhede/restaurant-insights/internal/store"
	storeBookings "github.com/samirwankhede/restaurant-insights/internal/store/bookings"
	"github.com/samirwankhede/restaurant-insights/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env, "worker")
	defer func() { _ = log.Sync() }()
	log.Info("worker starting", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.NewDB(ctx, cfg.PostgresURL, int32(cfg.MaxDBConnections))
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	cache := redisx.NewMetricsCache(redisx.NewClient(cfg.RedisAddr), cfg.MetricsCacheTTL)
	defer cache.Close()

	bookingsRepo := storeBookings.NewBookingsRepository(db.Pool, log)
	ingestSvc := ingest.NewIngestService(log, bookingsRepo, cache)

	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.KafkaTopic)
	defer consumer.Close()
	dlq := kafkax.NewProducer(cfg.KafkaBrokers, cfg.DLQTopic())
	defer dlq.Close()

	in := worker.NewIngester(log, ingestSvc, consumer, dlq, cfg.MaxWorkers)
	if err := in.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("ingester stopped", zap.Error(err))
	}
	log.Info("worker stopped")
}
