package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"crypto-pulse/internal/domain"
)

// GetPrices godoc
// @Summary      Get current prices for all tracked assets
// @Description  Returns the tracked-asset basket ordered by market-cap rank
// @Tags         market
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	respond(c, http.StatusOK, h.market.Prices(ctx))
}

// GetNews godoc
// @Summary      Get latest crypto news
// @Description  Returns recent crypto headlines, newest first
// @Tags         market
// @Produce      json
// @Param        limit  query  int  false  "Number of articles (default 10)"  default(10)
// @Success      200  {object}  map[string]interface{}
// @Router       /news [get]
func (h *Handler) GetNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	limit := 10
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	span.SetAttributes(attribute.Int("limit", limit))

	respond(c, http.StatusOK, h.market.News(ctx, limit))
}

// GetOnChain godoc
// @Summary      Get on-chain metrics for one asset
// @Description  Returns active addresses, whale transactions and exchange flows
// @Tags         market
// @Produce      json
// @Param        asset  query  string  true  "Asset symbol (e.g., BTC, ETH)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /onchain [get]
func (h *Handler) GetOnChain(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-onchain")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Query("asset")))
	span.SetAttributes(attribute.String("symbol", symbol))

	if symbol == "" {
		fail(c, http.StatusBadRequest, "missing asset query parameter")
		return
	}
	if _, ok := domain.AssetBySymbol(symbol); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported asset: " + symbol,
			"supported_symbols": domain.SupportedSymbols(),
		})
		return
	}

	snapshot, err := h.market.OnChain(ctx, symbol)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	respond(c, http.StatusOK, snapshot)
}

// GetFearGreed godoc
// @Summary      Get the fear & greed index
// @Description  Returns the latest market-wide fear & greed reading
// @Tags         market
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /feargreed [get]
func (h *Handler) GetFearGreed(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-feargreed")
	defer span.End()

	point := h.market.FearGreed(ctx)
	respond(c, http.StatusOK, gin.H{
		"value":          point.Value,
		"classification": point.Classification,
		"updated_at":     point.Timestamp,
	})
}
