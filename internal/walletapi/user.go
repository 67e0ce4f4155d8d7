package walletapi

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	Id        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	UserId    string         `gorm:"uniqueIndex;not null" json:"user_id"` // Public handle: "user01", "user02", ...
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `json:"-"` // bcrypt hash
	Name      string         `json:"name"`
	Mobile    string         `json:"mobile"`
	IsAdmin   bool           `json:"is_admin"`
	WalletId  uint           `gorm:"index" json:"wallet_id"`

	PushNotifications  bool `gorm:"default:true" json:"push_notifications"`
	EmailNotifications bool `gorm:"default:true" json:"email_notifications"`
	PriceAlerts        bool `gorm:"default:true" json:"price_alerts"`
	TransactionAlerts  bool `gorm:"default:true" json:"transaction_alerts"`
	MarketUpdates      bool `json:"market_updates"`
}

// UserData is the trimmed payload pushed over the websocket sync channel.
type UserData struct {
	ID       uint               `json:"id"`
	UserId   string             `json:"user_id"`
	Email    string             `json:"email"`
	Name     string             `json:"name"`
	Address  string             `json:"wallet_address"`
	Balances map[string]float64 `json:"balances"`
}

// Actor is the authorization capability handed to the engines. It is built
// by the HTTP layer from a validated token and carries the admin bit
// explicitly instead of relying on whatever user object a handler fetched.
type Actor struct {
	UserID   uint
	WalletID uint
	Admin    bool
}
