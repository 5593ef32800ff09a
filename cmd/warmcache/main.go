package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/config"
	"github.com/samirwankhede/restaurant-insights/internal/logger"
	redisx "github.com/samirwankhede/restaurant-insights/internal/redis"
	"github.com/samirwankhede/restaurant-insights/internal/service/analytics"
	"github.com/samirwankhede/restaurant-insights/internal/service/warmer"
	"github.com/samirwankhede/restaurant-insights/internal/store"
	storeBookings "github.com/samirwankhede/restaurant-insights/internal/store/bookings"
	storeReviews "github.com/samirwankhede/restaurant-insights/internal/store/reviews"
)

// Warms the metrics cache for the current month once, or every
// WARM_INTERVAL when it is set.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env, "warmcache")
	defer func() { _ = log.Sync() }()

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
	reviewsRepo := storeReviews.NewReviewsRepository(db.Pool, log)
	analyticsSvc := analytics.NewAnalyticsService(log, bookingsRepo, reviewsRepo, cache, cfg.QueryTimeout)
	w := warmer.NewCacheWarmer(log, bookingsRepo, analyticsSvc)

	if _, err := w.WarmCurrent(ctx); err != nil {
		log.Error("initial warm failed", zap.Error(err))
	}
	if cfg.WarmInterval > 0 {
		w.RunPeriodic(ctx, cfg.WarmInterval)
	}
}
