package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"novawallet/internal/walletapi"
)

func GetProfile(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	userId := c.MustGet("user_id").(uint)

	user, err := app.Store.UserByID(c.Request.Context(), userId)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type profileParams struct {
	Name   string `json:"name" binding:"required"`
	Mobile string `json:"mobile"`
}

// UpdateProfile edits name and, only while still unset, mobile.
func UpdateProfile(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	userId := c.MustGet("user_id").(uint)

	var params profileParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	user, err := app.Store.UserByID(c.Request.Context(), userId)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	user.Name = name
	if user.Mobile == "" {
		if mobile := strings.TrimSpace(params.Mobile); mobile != "" {
			user.Mobile = mobile
		}
	}
	if err := app.Store.SaveUser(c.Request.Context(), user); err != nil {
		abortWithErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"msg":  "Profile updated successfully",
		"user": user,
	})
}

type notificationParams struct {
	PushNotifications  *bool `json:"pushNotifications"`
	EmailNotifications *bool `json:"emailNotifications"`
	PriceAlerts        *bool `json:"priceAlerts"`
	TransactionAlerts  *bool `json:"transactionAlerts"`
	MarketUpdates      *bool `json:"marketUpdates"`
}

// UpdateNotifications toggles the per-user alert settings. Absent fields
// keep their value.
func UpdateNotifications(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	userId := c.MustGet("user_id").(uint)

	var params notificationParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := app.Store.UserByID(c.Request.Context(), userId)
	if err != nil {
		abortWithErr(c, err)
		return
	}
	if params.PushNotifications != nil {
		user.PushNotifications = *params.PushNotifications
	}
	if params.EmailNotifications != nil {
		user.EmailNotifications = *params.EmailNotifications
	}
	if params.PriceAlerts != nil {
		user.PriceAlerts = *params.PriceAlerts
	}
	if params.TransactionAlerts != nil {
		user.TransactionAlerts = *params.TransactionAlerts
	}
	if params.MarketUpdates != nil {
		user.MarketUpdates = *params.MarketUpdates
	}
	if err := app.Store.SaveUser(c.Request.Context(), user); err != nil {
		abortWithErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"msg":  "Notification settings updated",
		"user": user,
	})
}
