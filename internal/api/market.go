package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"novawallet/internal/walletapi"
)

func GetMarketPrices(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)

	prices := walletapi.MarketPrices(c.Request.Context(), app.Rdb)
	c.JSON(http.StatusOK, prices)
}

func GetGasFees(c *gin.Context) {
	c.JSON(http.StatusOK, walletapi.GasFees())
}

// GetChart serves a synthesized historical series for one token.
func GetChart(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	symbol := c.Param("symbol")
	timeframe := c.DefaultQuery("timeframe", "1D")

	if !walletapi.ValidToken(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token symbol"})
		return
	}

	prices := walletapi.MarketPrices(c.Request.Context(), app.Rdb)
	price, ok := prices[symbol]
	if !ok {
		price = walletapi.FallbackPrices[symbol]
	}

	c.JSON(http.StatusOK, gin.H{
		"prices": walletapi.ChartPoints(symbol, timeframe, price, time.Now()),
	})
}
