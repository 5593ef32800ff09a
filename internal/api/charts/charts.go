package charts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/chart"
)

// ChartsHandler renders caller-supplied series without touching storage.
type ChartsHandler struct {
	log *zap.Logger
}

func NewChartsHandler(log *zap.Logger) *ChartsHandler {
	return &ChartsHandler{log: log}
}

func (h *ChartsHandler) Register(r *gin.Engine) {
	g := r.Group("/v1/charts")
	g.POST("/heatmap", h.heatmap)
	g.POST("/outcomes", h.outcomes)
	g.POST("/ratings", h.ratings)
}

type heatmapRequest struct {
	Matrix [][]int `json:"matrix" binding:"required"`
}

func (h *ChartsHandler) heatmap(c *gin.Context) {
	var req heatmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hm, err := chart.BuildHeatmap(req.Matrix)
	if errors.Is(err, chart.ErrInvalidMatrix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error("heatmap render failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, hm)
}

type outcomesRequest struct {
	Completed float64 `json:"completed"`
	NoShow    float64 `json:"noShow"`
	Cancelled float64 `json:"cancelled"`
}

func (h *ChartsHandler) outcomes(c *gin.Context) {
	var req outcomesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, chart.BuildOutcomePie(req.Completed, req.NoShow, req.Cancelled))
}

type ratingsRequest struct {
	Data   []chart.RatingPoint `json:"data"`
	Width  float64             `json:"width"`
	Height float64             `json:"height"`
	Probe  *float64            `json:"probe"`
}

func (h *ChartsHandler) ratings(c *gin.Context) {
	var req ratingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width and height must be positive"})
		return
	}
	lc := chart.NewLineChart(req.Data, req.Width, req.Height)
	resp := gin.H{"chart": lc}
	if req.Probe != nil {
		if tip, ok := lc.Probe(*req.Probe); ok {
			resp["tooltip"] = tip
		}
	}
	c.JSON(http.StatusOK, resp)
}
