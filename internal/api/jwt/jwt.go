package jwt

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTClaim struct {
	UserId   uint `json:"user_id"`
	WalletId uint `json:"wallet_id"`
	jwt.RegisteredClaims
}

const JWT_EXPIRATION = 24 * 7 * time.Hour

func GenerateJWT(userId uint, walletId uint) (token string, err error) {

	var claims = JWTClaim{
		userId,
		walletId,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(JWT_EXPIRATION)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	resToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secret := os.Getenv("JWT_SECRET")
	signedToken, err := resToken.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func ValidateToken(signedToken string) (userId uint, walletId uint, err error) {
	token, err := jwt.ParseWithClaims(signedToken, &JWTClaim{}, func(t *jwt.Token) (interface{}, error) { return []byte(os.Getenv("JWT_SECRET")), nil })
	if err != nil {
		return 0, 0, err
	}
	claims, ok := token.Claims.(*JWTClaim)
	if !ok {
		return 0, 0, errors.New("error parsing claims")
	}
	if claims.UserId == 0 {
		return 0, 0, errors.New("malformed data")
	}

	return claims.UserId, claims.WalletId, nil
}
