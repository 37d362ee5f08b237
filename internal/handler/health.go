package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and how many coins are cached
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	body := gin.H{"status": "healthy"}
	if h.coins != nil {
		body["cachedCoins"] = h.coins.Size()
		if updated := h.coins.UpdatedAt(); !updated.IsZero() {
			body["updatedAt"] = updated
		}
	}
	c.JSON(http.StatusOK, body)
}
