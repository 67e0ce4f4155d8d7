package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"novawallet/internal/walletapi"
)

func actorFromContext(c *gin.Context) walletapi.Actor {
	actor := walletapi.Actor{
		UserID:   c.MustGet("user_id").(uint),
		WalletID: c.MustGet("wallet_id").(uint),
	}
	if u, ok := c.Get("admin_user"); ok {
		actor.Admin = u.(*walletapi.User).IsAdmin
	}
	return actor
}

// abortWithErr maps engine errors onto HTTP statuses. Insufficient-balance
// failures carry the required/available figures in the body.
func abortWithErr(c *gin.Context, err error) {
	if ibe, ok := walletapi.IsInsufficientBalance(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Insufficient balance (including gas fee)",
			"required":  ibe.Required,
			"available": ibe.Available,
			"token":     ibe.Token,
		})
		return
	}
	switch {
	case errors.Is(err, walletapi.ErrWalletNotFound),
		errors.Is(err, walletapi.ErrUserNotFound),
		errors.Is(err, walletapi.ErrTxNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, walletapi.ErrInvalidStatus),
		errors.Is(err, walletapi.ErrInvalidToken),
		errors.Is(err, walletapi.ErrInvalidNetwork),
		errors.Is(err, walletapi.ErrInvalidAmount),
		errors.Is(err, walletapi.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, walletapi.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
