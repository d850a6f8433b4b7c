package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dorm-allocation-backend/internal/matching"
)

// GetWeights handles GET /api/weights: the effective weight table seen
// by the next allocation run.
func (h *Handler) GetWeights(c *gin.Context) {
	weights, err := matching.CurrentWeights(c.Request.Context(), h.store)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"weights": weights})
}
