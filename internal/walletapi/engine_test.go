package walletapi

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T, store *memStore, balances map[string]float64) *Wallet {
	t.Helper()
	w := NewWallet(0)
	for token, amount := range balances {
		w.Balances[token] = amount
	}
	require.NoError(t, store.CreateWallet(context.Background(), w))
	return w
}

func TestSendInternal(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	sender := newTestWallet(t, store, map[string]float64{"ETH": 10})
	receiver := newTestWallet(t, store, map[string]float64{"ETH": 1})

	res, err := engine.Send(ctx, Actor{WalletID: sender.Id}, SendParams{
		ToAddress: receiver.Address,
		Token:     "ETH",
		Amount:    3,
		Network:   "Ethereum",
		GasFee:    0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, res.ReceiverCredited)
	assert.False(t, res.IsExternal)

	got, err := store.WalletByID(ctx, sender.Id)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, got.Balance("ETH"), 1e-9, "sender pays amount plus gas")

	got, err = store.WalletByID(ctx, receiver.Id)
	require.NoError(t, err)
	assert.InDelta(t, 4, got.Balance("ETH"), 1e-9, "receiver gets the amount, never the fee")

	sent, err := store.ListTransactions(ctx, TxFilter{WalletID: sender.Id})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, TypeSend, sent[0].Type)
	assert.Equal(t, StatusSuccess, sent[0].Status)
	assert.Equal(t, 0.5, sent[0].GasFee)

	received, err := store.ListTransactions(ctx, TxFilter{WalletID: receiver.Id})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, TypeReceive, received[0].Type)
	assert.Equal(t, float64(0), received[0].GasFee)
	assert.Equal(t, sent[0].Hash, received[0].Hash, "both records share one hash")
}

func TestSendExternalDefersDebit(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	sender := newTestWallet(t, store, map[string]float64{"BTC": 2})

	res, err := engine.Send(ctx, Actor{WalletID: sender.Id}, SendParams{
		ToAddress: "0xoutside000000000000000000",
		Token:     "BTC",
		Amount:    1,
		Network:   "Bitcoin",
		GasFee:    0.01,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, res.Status)
	assert.True(t, res.IsExternal)
	assert.False(t, res.ReceiverCredited)

	got, err := store.WalletByID(ctx, sender.Id)
	require.NoError(t, err)
	assert.Equal(t, float64(2), got.Balance("BTC"), "no debit before settlement")

	records, err := store.ListTransactions(ctx, TxFilter{WalletID: sender.Id})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, StatusProcessing, records[0].Status)
	assert.True(t, records[0].IsExternal)
}

func TestSendInsufficientBalance(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	sender := newTestWallet(t, store, map[string]float64{"ETH": 1})
	receiver := newTestWallet(t, store, map[string]float64{})

	_, err := engine.Send(ctx, Actor{WalletID: sender.Id}, SendParams{
		ToAddress: receiver.Address,
		Token:     "ETH",
		Amount:    1,
		Network:   "Ethereum",
		GasFee:    0.1,
	})
	insufficient, ok := IsInsufficientBalance(err)
	require.True(t, ok)
	assert.Equal(t, "ETH", insufficient.Token)
	assert.InDelta(t, 1.1, insufficient.Required, 1e-9)
	assert.Equal(t, float64(1), insufficient.Available)

	got, err := store.WalletByID(ctx, sender.Id)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got.Balance("ETH"), "rejected send must not touch the balance")

	count, err := store.CountTransactions(ctx, TxFilter{WalletID: sender.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "rejected send must not leave a record")
}

func TestSendExternalInsufficientBalance(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	sender := newTestWallet(t, store, map[string]float64{"USDT": 5})

	_, err := engine.Send(ctx, Actor{WalletID: sender.Id}, SendParams{
		ToAddress: "0xoutside000000000000000000",
		Token:     "USDT",
		Amount:    10,
		Network:   "Ethereum",
	})
	_, ok := IsInsufficientBalance(err)
	require.True(t, ok)

	count, err := store.CountTransactions(ctx, TxFilter{WalletID: sender.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSendValidation(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()
	sender := newTestWallet(t, store, map[string]float64{"ETH": 10})
	actor := Actor{WalletID: sender.Id}

	cases := []struct {
		name   string
		params SendParams
		want   error
	}{
		{"unknown token", SendParams{ToAddress: "0xa", Token: "DOGE", Amount: 1, Network: "Ethereum"}, ErrInvalidToken},
		{"unknown network", SendParams{ToAddress: "0xa", Token: "ETH", Amount: 1, Network: "Solana"}, ErrInvalidNetwork},
		{"zero amount", SendParams{ToAddress: "0xa", Token: "ETH", Amount: 0, Network: "Ethereum"}, ErrInvalidAmount},
		{"negative amount", SendParams{ToAddress: "0xa", Token: "ETH", Amount: -1, Network: "Ethereum"}, ErrInvalidAmount},
		{"negative gas fee", SendParams{ToAddress: "0xa", Token: "ETH", Amount: 1, Network: "Ethereum", GasFee: -0.1}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Send(ctx, actor, tc.params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSwap(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	wallet := newTestWallet(t, store, map[string]float64{"ETH": 5})

	res, err := engine.Swap(ctx, Actor{WalletID: wallet.Id}, SwapParams{
		FromToken:  "ETH",
		ToToken:    "USDT",
		FromAmount: 2,
		ToAmount:   7000,
		Network:    "Ethereum",
		GasFee:     0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)

	got, err := store.WalletByID(ctx, wallet.Id)
	require.NoError(t, err)
	assert.InDelta(t, 2.9, got.Balance("ETH"), 1e-9)
	assert.Equal(t, float64(7000), got.Balance("USDT"))

	records, err := store.ListTransactions(ctx, TxFilter{WalletID: wallet.Id})
	require.NoError(t, err)
	require.Len(t, records, 1, "swap writes a single record")
	assert.Equal(t, TypeSwap, records[0].Type)
	assert.Equal(t, StatusSuccess, records[0].Status)
	assert.Equal(t, wallet.Address, records[0].ToAddress)
}

func TestSwapInsufficientBalance(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	wallet := newTestWallet(t, store, map[string]float64{"ETH": 1})

	_, err := engine.Swap(ctx, Actor{WalletID: wallet.Id}, SwapParams{
		FromToken:  "ETH",
		ToToken:    "USDT",
		FromAmount: 1,
		ToAmount:   3500,
		Network:    "Ethereum",
		GasFee:     0.5,
	})
	_, ok := IsInsufficientBalance(err)
	require.True(t, ok)

	got, err := store.WalletByID(ctx, wallet.Id)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got.Balance("ETH"))
	assert.Equal(t, float64(0), got.Balance("USDT"))
}

func TestSetBalance(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	wallet := newTestWallet(t, store, map[string]float64{"ETH": 1})
	actor := Actor{WalletID: wallet.Id}

	got, err := engine.SetBalance(ctx, actor, "ETH", 42)
	require.NoError(t, err)
	assert.Equal(t, float64(42), got.Balance("ETH"), "overwrite, not add")

	_, err = engine.SetBalance(ctx, actor, "DOGE", 1)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = engine.SetBalance(ctx, actor, "ETH", -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// Concurrent sends from one wallet must never overdraw it: each attempt
// either settles fully or is rejected, and the final balance reflects
// exactly the settled ones.
func TestConcurrentSendsNeverOverdraw(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	sender := newTestWallet(t, store, map[string]float64{"USDT": 100})
	receiver := newTestWallet(t, store, map[string]float64{})

	const attempts = 20
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Send(ctx, Actor{WalletID: sender.Id}, SendParams{
				ToAddress: receiver.Address,
				Token:     "USDT",
				Amount:    9,
				Network:   "Ethereum",
				GasFee:    1,
			})
			if err != nil {
				_, ok := IsInsufficientBalance(err)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()

	got, err := store.WalletByID(ctx, sender.Id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Balance("USDT"), float64(0), "balance must never go negative")

	settled, err := store.CountTransactions(ctx, TxFilter{WalletID: sender.Id, Status: StatusSuccess})
	require.NoError(t, err)
	assert.InDelta(t, 100-float64(settled)*10, got.Balance("USDT"), 1e-9)

	credited, err := store.WalletByID(ctx, receiver.Id)
	require.NoError(t, err)
	assert.InDelta(t, float64(settled)*9, credited.Balance("USDT"), 1e-9)
}

func TestHistoryLimit(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	sender := newTestWallet(t, store, map[string]float64{"USDT": 1000})
	receiver := newTestWallet(t, store, map[string]float64{})

	for i := 0; i < 5; i++ {
		_, err := engine.Send(ctx, Actor{WalletID: sender.Id}, SendParams{
			ToAddress: receiver.Address,
			Token:     "USDT",
			Amount:    1,
			Network:   "Ethereum",
		})
		require.NoError(t, err)
	}

	records, err := engine.History(ctx, sender.Id, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = engine.History(ctx, sender.Id, 0)
	require.NoError(t, err)
	assert.Len(t, records, 5, "zero limit falls back to the default")
}
