package analytics

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/chart"
	"github.com/samirwankhede/restaurant-insights/internal/service/analytics"
	"github.com/samirwankhede/restaurant-insights/internal/store/bookings"
)

const (
	defaultChartWidth  = 600
	defaultChartHeight = 200
)

type Service interface {
	BookingsForRestaurant(ctx context.Context, q analytics.Query) ([]bookings.Booking, error)
	MetricsForRestaurant(ctx context.Context, q analytics.Query) (analytics.BookingMetrics, error)
	Outcomes(ctx context.Context, q analytics.Query) (analytics.OutcomeSummary, error)
	Heatmap(ctx context.Context, q analytics.Query) (chart.Heatmap, error)
	DailyRatings(ctx context.Context, q analytics.Query) ([]chart.RatingPoint, error)
}

type AnalyticsHandler struct {
	log *zap.Logger
	svc Service
}

func NewAnalyticsHandler(log *zap.Logger, svc Service) *AnalyticsHandler {
	return &AnalyticsHandler{log: log, svc: svc}
}

func (h *AnalyticsHandler) Register(r *gin.Engine) {
	g := r.Group("/v1/analytics")
	g.GET("/bookings", h.bookings)
	g.GET("/metrics", h.metrics)
	g.GET("/heatmap", h.heatmap)
	g.GET("/outcomes", h.outcomes)
	g.GET("/ratings", h.ratings)
}

// parseQuery reads restaurantId, month and year. An absent parameter is left
// at its zero value for the service to report; a non-numeric one is rejected
// here.
func parseQuery(c *gin.Context) (analytics.Query, error) {
	q := analytics.Query{RestaurantID: c.Query("restaurantId")}
	var err error
	if q.Month, err = intParam(c, "month"); err != nil {
		return q, err
	}
	if q.Year, err = intParam(c, "year"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &analytics.InvalidParameterError{Field: name, Value: v}
	}
	return n, nil
}

func floatParam(c *gin.Context, name string, def float64) (float64, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &analytics.InvalidParameterError{Field: name, Value: v}
	}
	return f, nil
}

func (h *AnalyticsHandler) fail(c *gin.Context, err error) {
	var missing *analytics.MissingParameterError
	var invalid *analytics.InvalidParameterError
	switch {
	case errors.As(err, &missing), errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warn("analytics query timed out", zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "query timed out"})
	default:
		h.log.Error("analytics query failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *AnalyticsHandler) bookings(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	items, err := h.svc.BookingsForRestaurant(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": items})
}

func (h *AnalyticsHandler) metrics(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	m, err := h.svc.MetricsForRestaurant(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *AnalyticsHandler) heatmap(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	hm, err := h.svc.Heatmap(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hm)
}

func (h *AnalyticsHandler) outcomes(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	out, err := h.svc.Outcomes(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) ratings(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	width, err := floatParam(c, "width", defaultChartWidth)
	if err != nil {
		h.fail(c, err)
		return
	}
	height, err := floatParam(c, "height", defaultChartHeight)
	if err != nil {
		h.fail(c, err)
		return
	}
	var probe *float64
	if c.Query("probe") != "" {
		p, err := floatParam(c, "probe", 0)
		if err != nil {
			h.fail(c, err)
			return
		}
		probe = &p
	}

	points, err := h.svc.DailyRatings(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	lc := chart.NewLineChart(points, width, height)
	resp := gin.H{"data": points, "chart": lc}
	if probe != nil {
		if tip, ok := lc.Probe(*probe); ok {
			resp["tooltip"] = tip
		}
	}
	c.JSON(http.StatusOK, resp)
}
