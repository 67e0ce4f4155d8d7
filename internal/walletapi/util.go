package walletapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/redis/go-redis/v9"

	"novawallet/internal/telegram"
)

const (
	MessageTargetSync         = "sync"
	MessageTargetNotification = "notify"

	MessageStyleSuccess = "success"
	MessageStyleWarning = "warning"
	MessageStyleError   = "error"
	MessageStyleInfo    = "info"

	MessageTypeCustom       = "custom"
	MessageTypeTxSettled    = "tx_settled"
	MessageTypeTxFailed     = "tx_failed"
	MessageTypeTxProcessing = "tx_processing"
)

type WsResponseData struct {
	Target string           `json:"target"` // 'sync' or 'notify'
	User   UserData         `json:"user"`
	Data   NotificationData `json:"data"`
	Config AppConfig        `json:"app_config"`
}

type NotificationData struct {
	Id      int     `json:"id"`
	Style   string  `json:"style"`
	Type    string  `json:"type"`
	Message string  `json:"message"`
	Token   string  `json:"token"`
	Amount  float64 `json:"amount"`
	Hash    string  `json:"hash"`
}

func EscapeMarkdownV2(text string) string {
	specialChars := []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	for _, char := range specialChars {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func SendTelegramMessage(msg string, chat string) error {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		err := errors.New("TELEGRAM_TOKEN is not set")
		return err
	}
	var chatId string
	switch chat {
	case "signup":
		chatId = os.Getenv("SIGNUP_CHAT_ID")
	case "finance":
		chatId = os.Getenv("FINANCE_CHAT_ID")
	default:
		chatId = os.Getenv("DEFAULT_CHAT_ID")
	}
	if chatId == "" {
		chatId = os.Getenv("DEFAULT_CHAT_ID")
	}
	if chatId == "" {
		return errors.New("CHAT_ID is not set")
	}
	chatIdInt, err := strconv.Atoi(chatId)
	if err != nil {
		return err
	}
	id := int64(chatIdInt)
	bot, err := telegram.NewBot(token)
	if err != nil {
		return err
	}
	_, err = bot.Api.SendMessage(id, msg, &gotgbot.SendMessageOpts{
		ParseMode: "MarkdownV2",
		LinkPreviewOptions: &gotgbot.LinkPreviewOptions{
			IsDisabled: true,
		},
	})
	if err != nil {
		return err
	}
	return nil
}

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// SyncWalletStats serializes the sync payload pushed when a websocket
// client connects or asks for "sync".
func SyncWalletStats(ctx context.Context, store Store, user User) (jsonData []byte) {
	wallet, err := store.WalletByID(ctx, user.WalletId)
	if err != nil {
		return nil
	}
	data := WsResponseData{
		Target: MessageTargetSync,
		Config: *CurrentAppConfig,
		User: UserData{
			ID:       user.Id,
			UserId:   user.UserId,
			Email:    user.Email,
			Name:     user.Name,
			Address:  wallet.Address,
			Balances: wallet.Balances,
		},
	}
	jsonData, err = json.Marshal(data)
	if err != nil {
		return nil
	}
	return jsonData
}

// PublishNotification pushes a notification to the user's websocket channel
// and caches it for replay until the client acks.
func PublishNotification(ctx context.Context, rdb *redis.Client, store Store, userID uint, data NotificationData) error {
	user, err := store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	wallet, err := store.WalletByID(ctx, user.WalletId)
	if err != nil {
		return err
	}
	if data.Id == 0 {
		data.Id = rand.Intn(99999)
	}
	payload, err := json.Marshal(WsResponseData{
		Target: MessageTargetNotification,
		Config: *CurrentAppConfig,
		User: UserData{
			ID:       user.Id,
			UserId:   user.UserId,
			Email:    user.Email,
			Name:     user.Name,
			Address:  wallet.Address,
			Balances: wallet.Balances,
		},
		Data: data,
	})
	if err != nil {
		return err
	}
	rdb.Set(ctx, fmt.Sprintf("notification_cache@%d:%d", user.Id, data.Id), payload, 1*time.Hour)
	return rdb.Publish(ctx, fmt.Sprintf("notification_ch@%d", user.Id), payload).Err()
}
