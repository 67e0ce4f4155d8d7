package walletapi

import (
	"errors"
	"fmt"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrTxNotFound     = errors.New("transaction not found")
	ErrInvalidStatus  = errors.New("invalid status value")
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidNetwork = errors.New("invalid network")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrForbidden      = errors.New("admin privileges required")
	ErrEmailTaken     = errors.New("user already exists")

	errUpstream = errors.New("upstream price API error")
)

// InsufficientBalanceError reports the shortfall so the client can show
// required vs. available figures.
type InsufficientBalanceError struct {
	Token     string
	Required  float64
	Available float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: required %g, available %g", e.Token, e.Required, e.Available)
}

func IsInsufficientBalance(err error) (*InsufficientBalanceError, bool) {
	var ibe *InsufficientBalanceError
	if errors.As(err, &ibe) {
		return ibe, true
	}
	return nil, false
}
