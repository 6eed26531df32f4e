package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultSignalLimit = 20
	maxSignalLimit     = 100
)

// GetSignals godoc
// @Summary      Get latest trading signals
// @Description  Returns the most recent trading signals, newest first
// @Tags         signals
// @Produce      json
// @Param        limit  query  int  false  "Number of signals (default 20, max 100)"  default(20)
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /signals [get]
func (h *Handler) GetSignals(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	limit := defaultSignalLimit
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxSignalLimit {
			limit = n
		}
	}
	span.SetAttributes(attribute.Int("limit", limit))

	signals, err := h.signals.ListSignals(ctx, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	respond(c, http.StatusOK, signals)
}
