package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"novawallet/internal/api/jwt"
	"novawallet/internal/walletapi"
)

type credentialsParams struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register creates a user plus its wallet and hands back a signed token.
func Register(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	var params credentialsParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	user, wallet, err := app.Engine.Register(c.Request.Context(), params.Email, string(hashed))
	if err != nil {
		if errors.Is(err, walletapi.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		abortWithErr(c, err)
		return
	}

	token, err := jwt.GenerateJWT(user.Id, user.WalletId)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cpUrl := os.Getenv("CP_URL")
	msg := fmt.Sprintf(
		`New Signup [User: %d](%s/users/%d)
[%s](mailto:%s)
Wallet: %s`,
		user.Id,
		cpUrl,
		user.Id,
		walletapi.EscapeMarkdownV2(user.Email),
		user.Email,
		walletapi.EscapeMarkdownV2(wallet.Address),
	)
	_ = walletapi.SendTelegramMessage(msg, "signup")

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"userId":        user.UserId,
		"walletAddress": wallet.Address,
	})
}

// Login verifies credentials and returns a fresh token.
func Login(c *gin.Context) {
	app := c.MustGet("app").(*walletapi.App)
	var params credentialsParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := app.Store.UserByEmail(c.Request.Context(), params.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(params.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
		return
	}

	wallet, err := app.Store.WalletByID(c.Request.Context(), user.WalletId)
	if err != nil {
		abortWithErr(c, err)
		return
	}

	token, err := jwt.GenerateJWT(user.Id, user.WalletId)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"userId":        user.UserId,
		"walletAddress": wallet.Address,
	})
}

// GetUserFromToken is the shared token check used by the websocket handler
// where no middleware runs.
func GetUserFromToken(token string) (userId uint, walletId uint, err error) {
	userId, walletId, err = jwt.ValidateToken(token)
	if err != nil {
		return 0, 0, errors.New("invalid jwt")
	}

	return userId, walletId, nil
}
