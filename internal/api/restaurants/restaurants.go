package restaurants

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/editor"
)

type ProfileStore interface {
	editor.Saver
	Get(id string) (editor.Restaurant, bool)
}

type RestaurantsHandler struct {
	log   *zap.Logger
	store ProfileStore
}

func NewRestaurantsHandler(log *zap.Logger, store ProfileStore) *RestaurantsHandler {
	return &RestaurantsHandler{log: log, store: store}
}

func (h *RestaurantsHandler) Register(r *gin.Engine) {
	r.GET("/v1/restaurants/:id/profile", h.get)
	r.PUT("/v1/restaurants/:id/profile", h.update)
}

func (h *RestaurantsHandler) get(c *gin.Context) {
	r, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": r, "formattedAddress": editor.FormatAddress(r.Address)})
}

func (h *RestaurantsHandler) update(c *gin.Context) {
	id := c.Param("id")
	var body editor.Restaurant
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form := editor.NewForm(editor.Restaurant{ID: id}, h.store, nil)
	form.Apply(body)
	err := form.Submit(c.Request.Context())
	switch {
	case err == nil:
		r := form.Restaurant()
		c.JSON(http.StatusOK, gin.H{
			"restaurant":       r,
			"formattedAddress": editor.FormatAddress(r.Address),
			"message":          form.Message(),
		})
	case errors.Is(err, editor.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "fields": form.Errors()})
	default:
		h.log.Error("profile save failed", zap.String("restaurant_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": form.Message()})
	}
}
