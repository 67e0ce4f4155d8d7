package walletapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardStats(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	_, senderWallet, err := engine.Register(ctx, "alice@demo.com", "hash")
	require.NoError(t, err)
	_, receiverWallet, err := engine.Register(ctx, "bob@demo.com", "hash")
	require.NoError(t, err)

	admin := &User{UserId: "admin", Email: "admin@demo.com", IsAdmin: true}
	require.NoError(t, store.CreateUser(ctx, admin))

	_, err = engine.SetBalance(ctx, Actor{WalletID: senderWallet.Id}, "USDT", 500)
	require.NoError(t, err)

	_, err = engine.Send(ctx, Actor{WalletID: senderWallet.Id}, SendParams{
		ToAddress: receiverWallet.Address,
		Token:     "USDT",
		Amount:    100,
		Network:   "Ethereum",
	})
	require.NoError(t, err)

	_, err = engine.Send(ctx, Actor{WalletID: senderWallet.Id}, SendParams{
		ToAddress: "0xoutside000000000000000000",
		Token:     "USDT",
		Amount:    50,
		Network:   "Ethereum",
	})
	require.NoError(t, err)

	stats, err := GetDashboardStats(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalUsers, "admins are not counted")
	assert.Equal(t, int64(3), stats.TotalTransactions, "internal pair plus the external record")
	assert.Equal(t, int64(1), stats.ProcessingTransactions)
	assert.Equal(t, int64(1), stats.ExternalTransactions)
	assert.Equal(t, float64(150), stats.VolumeByToken["USDT"], "volume sums send amounts only")
}
