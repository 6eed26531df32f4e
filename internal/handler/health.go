package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto-pulse/internal/cache"
	"crypto-pulse/internal/db"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the service status plus database and cache readiness
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": db.Pool != nil,
		"cache":    cache.Client != nil,
	})
}
