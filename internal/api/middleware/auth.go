package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"novawallet/internal/api/jwt"
	"novawallet/internal/walletapi"
)

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "jwt missing"})
			return
		}
		userId, walletId, err := jwt.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("user_id", userId)
		c.Set("wallet_id", walletId)
		c.Next()
	}
}

// Admin runs after Auth and rejects non-admin users. The fetched user is
// kept in the context so admin handlers do not reload it.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := c.MustGet("app").(*walletapi.App)
		userId := c.MustGet("user_id").(uint)
		user, err := app.Store.UserByID(c.Request.Context(), userId)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Set("admin_user", user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	return strings.TrimPrefix(token, "Bearer ")
}
