package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novawallet/internal/walletapi"
)

type balanceParams struct {
	Token  string  `json:"token" binding:"required"`
	Amount float64 `json:"amount"`
}

func GetBalance(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	actor := actorFromContext(c)

	wallet, err := app.Engine.Balances(c.Request.Context(), actor.WalletID)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"walletAddress": wallet.Address,
		"balances":      wallet.Balances,
	})
}

// UpdateBalance overwrites one token balance. Demo top-up only.
func UpdateBalance(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	actor := actorFromContext(c)

	var params balanceParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := app.Engine.SetBalance(c.Request.Context(), actor, params.Token, params.Amount)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"msg":      "Balance updated",
		"balances": wallet.Balances,
	})
}
