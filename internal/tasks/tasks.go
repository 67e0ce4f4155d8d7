package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"novawallet/internal/walletapi"
)

const (
	TypeTxReview = "tx:review"
	TypeTxAlert  = "tx:alert"
)

type TxPayload struct {
	TxID    uint `json:"tx_id"`
	Debited bool `json:"debited"`
}

func NewTxReviewTask(txID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(TxPayload{TxID: txID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTxReview, payload, asynq.Queue("review")), nil
}

func NewTxAlertTask(txID uint, debited bool) (*asynq.Task, error) {
	payload, err := json.Marshal(TxPayload{TxID: txID, Debited: debited})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTxAlert, payload, asynq.Queue("alerts")), nil
}

// QueueNotifier implements walletapi.Notifier by enqueueing asynq tasks.
// Delivery problems never fail the originating request.
type QueueNotifier struct {
	client *asynq.Client
}

func NewQueueNotifier(client *asynq.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) ReviewRequested(ctx context.Context, tx *walletapi.Transaction) {
	task, err := NewTxReviewTask(tx.Id)
	if err != nil {
		return
	}
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		fmt.Println("enqueue tx:review failed:", err)
	}
}

func (n *QueueNotifier) Settled(ctx context.Context, tx *walletapi.Transaction, debited bool) {
	task, err := NewTxAlertTask(tx.Id, debited)
	if err != nil {
		return
	}
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		fmt.Println("enqueue tx:alert failed:", err)
	}
}

// Handler consumes the queues in cmd/worker.
type Handler struct {
	Rdb   *redis.Client
	Store walletapi.Store
}

// HandleTxReview pings the finance channel so an admin reviews the
// externally-bound transfer.
func (h *Handler) HandleTxReview(ctx context.Context, t *asynq.Task) error {
	var p TxPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	tx, err := h.Store.TransactionByID(ctx, p.TxID)
	if err != nil {
		return err
	}
	wallet, err := h.Store.WalletByID(ctx, tx.FromWalletId)
	if err != nil {
		return err
	}
	user, err := h.Store.UserByID(ctx, wallet.UserId)
	if err != nil {
		return err
	}
	cpUrl := os.Getenv("CP_URL")
	msg := fmt.Sprintf(
		`External transfer awaiting review [Transaction: %d](%s/transactions/%d)
[User: %s](%s/users/%d)
Amount: %s %s
Fee: %s
To: %s`,
		tx.Id,
		cpUrl,
		tx.Id,
		walletapi.EscapeMarkdownV2(user.Email),
		cpUrl,
		user.Id,
		walletapi.EscapeMarkdownV2(fmt.Sprintf("%g", tx.Amount)),
		tx.Token,
		walletapi.EscapeMarkdownV2(fmt.Sprintf("%g", tx.GasFee)),
		walletapi.EscapeMarkdownV2(tx.ToAddress),
	)
	return walletapi.SendTelegramMessage(msg, "finance")
}

// HandleTxAlert pushes a websocket notification to the transaction's owner
// once an admin settled it, honoring the user's alert preference.
func (h *Handler) HandleTxAlert(ctx context.Context, t *asynq.Task) error {
	var p TxPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	tx, err := h.Store.TransactionByID(ctx, p.TxID)
	if err != nil {
		return err
	}
	wallet, err := h.Store.WalletByID(ctx, tx.FromWalletId)
	if err != nil {
		return err
	}
	user, err := h.Store.UserByID(ctx, wallet.UserId)
	if err != nil {
		return err
	}
	if !user.TransactionAlerts {
		return nil
	}

	data := walletapi.NotificationData{
		Style:  walletapi.MessageStyleInfo,
		Type:   walletapi.MessageTypeTxProcessing,
		Token:  tx.Token,
		Amount: tx.Amount,
		Hash:   tx.Hash,
	}
	switch tx.Status {
	case walletapi.StatusSuccess:
		data.Style = walletapi.MessageStyleSuccess
		data.Type = walletapi.MessageTypeTxSettled
		if p.Debited {
			data.Message = fmt.Sprintf("Your transfer of %g %s was approved and your balance has been deducted.", tx.Amount, tx.Token)
		} else {
			data.Message = fmt.Sprintf("Your transaction %s was marked as completed.", tx.Hash)
		}
	case walletapi.StatusFailed:
		data.Style = walletapi.MessageStyleError
		data.Type = walletapi.MessageTypeTxFailed
		data.Message = fmt.Sprintf("Your transfer of %g %s was rejected.", tx.Amount, tx.Token)
	default:
		data.Message = fmt.Sprintf("Your transaction %s is now %s.", tx.Hash, tx.Status)
	}
	return walletapi.PublishNotification(ctx, h.Rdb, h.Store, user.Id, data)
}

// Mux wires the task handlers for the asynq server.
func (h *Handler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTxReview, h.HandleTxReview)
	mux.HandleFunc(TypeTxAlert, h.HandleTxAlert)
	return mux
}
