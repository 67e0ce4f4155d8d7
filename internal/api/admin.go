package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"novawallet/internal/walletapi"
)

type adminTx struct {
	Id                uint    `json:"_id"`
	Hash              string  `json:"hash"`
	From              string  `json:"from"`
	FromWalletAddress string  `json:"fromWalletAddress"`
	To                string  `json:"to"`
	Token             string  `json:"token"`
	Amount            float64 `json:"amount"`
	GasFee            float64 `json:"gasFee"`
	Status            string  `json:"status"`
	Type              string  `json:"type"`
	IsExternal        bool    `json:"isExternal"`
	Network           string  `json:"network"`
	Timestamp         int64   `json:"timestamp"`
}

func formatAdminTx(c *gin.Context, app *walletapi.App, tx walletapi.Transaction) adminTx {
	out := adminTx{
		Id:         tx.Id,
		Hash:       tx.Hash,
		From:       "Unknown",
		To:         tx.ToAddress,
		Token:      tx.Token,
		Amount:     tx.Amount,
		GasFee:     tx.GasFee,
		Status:     tx.Status,
		Type:       tx.Type,
		IsExternal: tx.IsExternal,
		Network:    tx.Network,
		Timestamp:  tx.CreatedAt.UnixMilli(),
	}
	wallet, err := app.Store.WalletByID(c.Request.Context(), tx.FromWalletId)
	if err != nil {
		return out
	}
	out.FromWalletAddress = wallet.Address
	if user, err := app.Store.UserByID(c.Request.Context(), wallet.UserId); err == nil {
		out.From = user.Email
	}
	return out
}

// GetAllTransactions returns the cross-user transaction feed.
func GetAllTransactions(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)

	transactions, err := app.Store.ListTransactions(c.Request.Context(), walletapi.TxFilter{Limit: 500})
	if err != nil {
		abortWithErr(c, err)
		return
	}

	formatted := make([]adminTx, 0, len(transactions))
	for _, tx := range transactions {
		formatted = append(formatted, formatAdminTx(c, app, tx))
	}

	c.JSON(http.StatusOK, gin.H{
		"count":        len(formatted),
		"transactions": formatted,
	})
}

// GetAllUsers lists non-admin users with balances and activity counters.
func GetAllUsers(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)

	users, err := app.Store.ListUsers(c.Request.Context(), true)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	type adminUser struct {
		Id               uint               `json:"_id"`
		UserId           string             `json:"userId"`
		Email            string             `json:"email"`
		Name             string             `json:"name"`
		Mobile           string             `json:"mobile"`
		WalletAddress    string             `json:"walletAddress"`
		Balances         map[string]float64 `json:"balances"`
		TransactionCount int64              `json:"transactionCount"`
		CreatedAt        int64              `json:"createdAt"`
	}

	out := make([]adminUser, 0, len(users))
	for _, user := range users {
		entry := adminUser{
			Id:            user.Id,
			UserId:        user.UserId,
			Email:         user.Email,
			Name:          user.Name,
			Mobile:        user.Mobile,
			WalletAddress: "No wallet",
			Balances:      map[string]float64{},
			CreatedAt:     user.CreatedAt.UnixMilli(),
		}
		if wallet, err := app.Store.WalletByID(c.Request.Context(), user.WalletId); err == nil {
			entry.WalletAddress = wallet.Address
			entry.Balances = wallet.Balances
			count, _ := app.Store.CountTransactions(c.Request.Context(), walletapi.TxFilter{WalletID: wallet.Id})
			entry.TransactionCount = count
		}
		out = append(out, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(out),
		"users": out,
	})
}

type statusParams struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTransactionStatus runs the settlement transition. Approving an
// external Processing record debits the originating wallet; a shortfall
// rejects the whole update.
func UpdateTransactionStatus(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	actor := actorFromContext(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}
	var params statusParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := app.Engine.SettleStatus(c.Request.Context(), actor, uint(id), params.Status)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	msg := "Transaction status updated"
	if result.Debited {
		msg = "Transaction completed and balance deducted"
	}
	c.JSON(http.StatusOK, gin.H{
		"msg":         msg,
		"transaction": formatAdminTx(c, app, *result.Transaction),
	})
}

// GetActivity is the filterable all-types activity log.
func GetActivity(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)

	filter := walletapi.TxFilter{Limit: walletapi.CurrentAppConfig.Settings.Limits.ActivityCount}
	if txType := c.Query("type"); txType != "" && walletapi.ValidTxType(txType) {
		filter.Type = txType
	}
	if userId := c.Query("userId"); userId != "" {
		users, err := app.Store.ListUsers(c.Request.Context(), false)
		if err != nil {
			abortWithErr(c, err)
			return
		}
		for _, user := range users {
			if user.UserId == userId {
				filter.WalletID = user.WalletId
				break
			}
		}
	}

	activities, err := app.Store.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	formatted := make([]adminTx, 0, len(activities))
	for _, tx := range activities {
		formatted = append(formatted, formatAdminTx(c, app, tx))
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      len(formatted),
		"activities": formatted,
	})
}

// GetStats serves the dashboard counters.
func GetStats(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)

	stats, err := walletapi.GetDashboardStats(c.Request.Context(), app.Store)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
