package walletapi

import "time"

const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusSuccess    = "Success"
	StatusFailed     = "Failed"
)

const (
	TypeSend    = "send"
	TypeReceive = "receive"
	TypeSwap    = "swap"
	TypeStake   = "stake"
)

// Transaction keeps the data of one transfer or swap attempt. Records are
// never deleted; after creation only Status may change, and only through
// Engine.SettleStatus.
type Transaction struct {
	Id           uint      `json:"id" gorm:"primarykey"`
	CreatedAt    time.Time `json:"timestamp"`
	FromWalletId uint      `gorm:"index" json:"from_wallet_id"`
	ToAddress    string    `json:"to_address"`
	Token        string    `json:"token"`
	Amount       float64   `json:"amount"`
	Network      string    `json:"network"`
	GasFee       float64   `json:"gas_fee"`
	Status       string    `gorm:"index" json:"status"`
	Hash         string    `gorm:"index" json:"hash"`
	Type         string    `gorm:"index" json:"type"`
	IsExternal   bool      `json:"is_external"`
}

func ValidStatus(status string) bool {
	switch status {
	case StatusSuccess, StatusPending, StatusFailed, StatusProcessing:
		return true
	}
	return false
}

func ValidTxType(txType string) bool {
	switch txType {
	case TypeSend, TypeReceive, TypeSwap, TypeStake:
		return true
	}
	return false
}
