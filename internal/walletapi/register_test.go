package walletapi

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	user, wallet, err := engine.Register(ctx, "alice@demo.com", "hash1")
	require.NoError(t, err)
	assert.Equal(t, "user01", user.UserId)
	assert.Equal(t, wallet.Id, user.WalletId)
	assert.Equal(t, user.Id, wallet.UserId)
	assert.True(t, user.TransactionAlerts)

	require.NotEmpty(t, wallet.Address)
	assert.Equal(t, "0x", wallet.Address[:2])
	for _, token := range Tokens {
		assert.Equal(t, float64(0), wallet.Balance(token), "new wallets start empty")
	}

	second, _, err := engine.Register(ctx, "bob@demo.com", "hash2")
	require.NoError(t, err)
	assert.Equal(t, "user02", second.UserId)

	_, _, err = engine.Register(ctx, "alice@demo.com", "hash3")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterConcurrentHandles(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := engine.Register(ctx, fmt.Sprintf("user%d@demo.com", i), "hash")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	users, err := store.ListUsers(ctx, false)
	require.NoError(t, err)
	require.Len(t, users, n)

	seen := make(map[string]bool)
	for _, u := range users {
		assert.False(t, seen[u.UserId], "handle %s assigned twice", u.UserId)
		seen[u.UserId] = true
	}
}
