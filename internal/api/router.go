package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/api/analytics"
	"github.com/samirwankhede/restaurant-insights/internal/api/charts"
	"github.com/samirwankhede/restaurant-insights/internal/api/restaurants"
	"github.com/samirwankhede/restaurant-insights/internal/config"
	"github.com/samirwankhede/restaurant-insights/internal/middleware"
)

// Deps are the services behind the HTTP routes. Redis may be nil, in which
// case rate limiting stays in memory.
type Deps struct {
	Config    config.Config
	Analytics analytics.Service
	Profiles  restaurants.ProfileStore
	Redis     *redis.Client
}

// RegisterRoutes wires all HTTP routes.
func RegisterRoutes(r *gin.Engine, log *zap.Logger, d Deps) {
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.CORS(d.Config.CORSOrigins))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Restaurant Insights",
			"description": "Booking analytics for restaurant dashboards: monthly metrics, busy-hour heatmaps, outcome split and rating trends.",
			"version":     "1.0.0",
			"docs":        "/docs",
			"endpoints":   []string{"/v1/health", "/v1/analytics", "/v1/charts", "/v1/restaurants/:id/profile", "/metrics"},
		})
	})
	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	RegisterDocs(r)

	r.Use(middleware.HybridRateLimit(log, d.Redis, d.Config.RateLimitRPS, d.Config.RateLimitBurst))

	analytics.NewAnalyticsHandler(log, d.Analytics).Register(r)
	charts.NewChartsHandler(log).Register(r)
	restaurants.NewRestaurantsHandler(log, d.Profiles).Register(r)
}
