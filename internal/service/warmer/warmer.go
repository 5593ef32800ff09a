package warmer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/metrics"
	"github.com/samirwankhede/restaurant-insights/internal/service/analytics"
	"github.com/samirwankhede/restaurant-insights/internal/store"
)

type RestaurantLister interface {
	RestaurantsWithBookings(ctx context.Context, month store.MonthKey) ([]string, error)
}

type MetricsLoader interface {
	MetricsForRestaurant(ctx context.Context, q analytics.Query) (analytics.BookingMetrics, error)
}

// CacheWarmer precomputes booking metrics for every restaurant active in a
// month so dashboard reads hit the cache.
type CacheWarmer struct {
	log         *zap.Logger
	restaurants RestaurantLister
	metrics     MetricsLoader
	now         func() time.Time
}

func NewCacheWarmer(log *zap.Logger, restaurants RestaurantLister, loader MetricsLoader) *CacheWarmer {
	return &CacheWarmer{log: log, restaurants: restaurants, metrics: loader, now: time.Now}
}

// WarmMonth loads metrics for each restaurant with bookings in month. A
// failing restaurant is logged and skipped; the count of warmed restaurants
// is returned.
func (w *CacheWarmer) WarmMonth(ctx context.Context, month store.MonthKey) (int, error) {
	metrics.CacheWarmRunsTotal.Inc()
	ids, err := w.restaurants.RestaurantsWithBookings(ctx, month)
	if err != nil {
		w.log.Error("failed to list restaurants", zap.String("month", month.String()), zap.Error(err))
		return 0, err
	}

	warmed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		q := analytics.Query{RestaurantID: id, Month: month.Month, Year: month.Year}
		if _, err := w.metrics.MetricsForRestaurant(ctx, q); err != nil {
			w.log.Warn("failed to warm metrics", zap.String("restaurant_id", id), zap.Error(err))
			continue
		}
		warmed++
	}
	w.log.Info("metrics cache warmed", zap.String("month", month.String()), zap.Int("restaurants", warmed), zap.Int("listed", len(ids)))
	return warmed, nil
}

// WarmCurrent warms the current calendar month.
func (w *CacheWarmer) WarmCurrent(ctx context.Context) (int, error) {
	return w.WarmMonth(ctx, store.NewMonthKey(w.now()))
}

// RunPeriodic warms the current month every interval until ctx is done.
func (w *CacheWarmer) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.log.Info("starting periodic cache warmer", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("stopping periodic cache warmer")
			return
		case <-ticker.C:
			if _, err := w.WarmCurrent(ctx); err != nil {
				w.log.Error("periodic warm failed", zap.Error(err))
			}
		}
	}
}
