package walletapi

import (
	"time"

	"github.com/dchest/uniuri"
)

var (
	Tokens   = []string{"BTC", "ETH", "USDT", "BNB", "MATIC"}
	Networks = []string{"Ethereum", "BNB Chain", "Polygon", "Bitcoin"}
)

var addressChars = []byte("abcdefghijklmnopqrstuvwxyz0123456789")

type Wallet struct {
	Id        uint               `json:"id" gorm:"primarykey"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Address   string             `gorm:"uniqueIndex;not null" json:"address"`
	UserId    uint               `gorm:"index" json:"user_id"`
	Balances  map[string]float64 `gorm:"serializer:json" json:"balances"`
}

// NewWallet returns an unsaved wallet with a fresh simulated address and
// every supported token zeroed.
func NewWallet(userId uint) *Wallet {
	balances := make(map[string]float64, len(Tokens))
	for _, token := range Tokens {
		balances[token] = 0
	}
	return &Wallet{
		Address:  NewAddress(),
		UserId:   userId,
		Balances: balances,
	}
}

func NewAddress() string {
	return "0x" + uniuri.NewLenChars(26, addressChars)
}

// NewTxHash returns an opaque simulated transaction hash.
func NewTxHash() string {
	return "0x" + uniuri.NewLenChars(24, addressChars)
}

func ValidToken(token string) bool {
	for _, t := range Tokens {
		if t == token {
			return true
		}
	}
	return false
}

func ValidNetwork(network string) bool {
	for _, n := range Networks {
		if n == network {
			return true
		}
	}
	return false
}

// Balance treats a missing token entry as zero.
func (w *Wallet) Balance(token string) float64 {
	if w.Balances == nil {
		return 0
	}
	return w.Balances[token]
}

func (w *Wallet) credit(token string, amount float64) {
	if w.Balances == nil {
		w.Balances = make(map[string]float64)
	}
	w.Balances[token] += amount
}
