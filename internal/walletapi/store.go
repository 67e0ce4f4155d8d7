package walletapi

import (
	"context"
	"sort"
	"sync"
)

// TxFilter narrows transaction listings for the history and admin feeds.
// Zero values mean "no filter".
type TxFilter struct {
	WalletID   uint
	Type       string
	Status     string
	ExternalTo *bool
	Limit      int
}

// Store is the persistence boundary the engines run against. The gorm
// implementation backs production; tests substitute an in-memory one.
type Store interface {
	// Atomically runs fn against a store view whose writes either all land
	// or none do. Wallet reads inside fn take row locks where the backend
	// supports them.
	Atomically(ctx context.Context, fn func(Store) error) error

	UserByID(ctx context.Context, id uint) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	SaveUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context, excludeAdmins bool) ([]User, error)
	CountUsers(ctx context.Context, excludeAdmins bool) (int64, error)

	WalletByID(ctx context.Context, id uint) (*Wallet, error)
	WalletByAddress(ctx context.Context, address string) (*Wallet, error)
	CreateWallet(ctx context.Context, w *Wallet) error
	SaveWallet(ctx context.Context, w *Wallet) error

	TransactionByID(ctx context.Context, id uint) (*Transaction, error)
	CreateTransaction(ctx context.Context, t *Transaction) error
	SaveTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, f TxFilter) ([]Transaction, error)
	CountTransactions(ctx context.Context, f TxFilter) (int64, error)
	VolumeByToken(ctx context.Context) (map[string]float64, error)
}

// walletLocks serializes check-then-write sequences per wallet so two
// concurrent transfers cannot both pass a sufficiency check against a
// stale balance.
type walletLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *walletLocks) get(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Lock acquires the mutex of every listed wallet in ascending id order and
// returns the matching unlock. Ascending order keeps two opposing transfers
// from deadlocking on each other.
func (l *walletLocks) Lock(ids ...uint) func() {
	uniq := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
	held := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
