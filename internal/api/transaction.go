package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novawallet/internal/walletapi"
)

// Send executes a transfer. External destinations come back Processing
// and stay undebited until an admin approves them.
func Send(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	actor := actorFromContext(c)

	var params walletapi.SendParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := app.Engine.Send(c.Request.Context(), actor, params)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	msg := "Transaction successful"
	if result.IsExternal {
		msg = "External transaction initiated - processing"
	}
	c.JSON(http.StatusOK, gin.H{
		"msg":         msg,
		"transaction": result,
	})
}

func Swap(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	actor := actorFromContext(c)

	var params walletapi.SwapParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := app.Engine.Swap(c.Request.Context(), actor, params)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"msg":         "Swap successful",
		"transaction": result,
	})
}

// GetHistory lists the caller's transaction records, most recent first.
func GetHistory(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	actor := actorFromContext(c)

	limit := walletapi.CurrentAppConfig.Settings.Limits.HistoryCount
	transactions, err := app.Engine.History(c.Request.Context(), actor.WalletID, limit)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}
