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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/api"
	"github.com/samirwankhede/restaurant-insights/internal/config"
	"github.com/samirwankhede/restaurant-insights/internal/editor"
	"github.com/samirwankhede/restaurant-insights/internal/logger"
	"github.com/samirwankhede/restaurant-insights/internal/middleware"
	redisx "github.com/samirwankhede/restaurant-insights/internal/redis"
	"github.com/samirwankhede/restaurant-insights/internal/service/analytics"
	"github.com/samirwankhede/restaurant-insights/internal/store"
	storeBookings "github.com/samirwankhede/restaurant-insights/internal/store/bookings"
	storeReviews "github.com/samirwankhede/restaurant-insights/internal/store/reviews"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env, "server")
	defer func() { _ = log.Sync() }()

	db, err := store.NewDB(context.Background(), cfg.PostgresURL, int32(cfg.MaxDBConnections))
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	redisClient := redisx.NewClient(cfg.RedisAddr)
	cache := redisx.NewMetricsCache(redisClient, cfg.MetricsCacheTTL)
	defer cache.Close()

	bookingsRepo := storeBookings.NewBookingsRepository(db.Pool, log)
	reviewsRepo := storeReviews.NewReviewsRepository(db.Pool, log)
	analyticsSvc := analytics.NewAnalyticsService(log, bookingsRepo, reviewsRepo, cache, cfg.QueryTimeout)
	profiles := editor.NewSimulatedSaver(log, cfg.SaveDelay)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	api.RegisterRoutes(r, log, api.Deps{
		Config:    cfg,
		Analytics: analyticsSvc,
		Profiles:  profiles,
		Redis:     redisClient,
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   20 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server starting", zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	log.Info("server exited")
}
