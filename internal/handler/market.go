package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coinpulse/internal/market"
)

// MarketHandler exposes a read-only passthrough to the exchange API so
// clients can show live market context next to the prediction aggregates.
type MarketHandler struct {
	Market *market.Client
	Logger *zap.Logger
}

func (h *MarketHandler) Register(r *gin.Engine) {
	r.GET("/api/market/ticker24h/:symbol", h.ticker)
}

// @Summary 24h rolling ticker stats for a trading pair
// @Tags market
// @Success 200 {object} market.Ticker24h
// @Router /api/market/ticker24h/{symbol} [get]
func (h *MarketHandler) ticker(c *gin.Context) {
	symbol := c.Param("symbol")

	ticker, err := h.Market.Ticker(c.Request.Context(), symbol)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("ticker fetch failed", zap.String("symbol", symbol), zap.Error(err))
		}
		var apiErr *market.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			Fail(c, http.StatusBadRequest, "invalid symbol")
			return
		}
		Fail(c, http.StatusServiceUnavailable, "market data temporarily unavailable, please try again later")
		return
	}
	c.JSON(http.StatusOK, ticker)
}
