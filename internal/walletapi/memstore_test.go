package walletapi

import (
	"context"
	"sort"
	"sync"
)

// memStore is the in-memory Store used by the engine tests. Atomically
// snapshots the maps and rolls back on error, mirroring the transactional
// behavior of the gorm store.
type memStore struct {
	txMu         sync.Mutex
	mu           sync.Mutex
	users        map[uint]*User
	wallets      map[uint]*Wallet
	transactions map[uint]*Transaction
	nextUser     uint
	nextWallet   uint
	nextTx       uint
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[uint]*User),
		wallets:      make(map[uint]*Wallet),
		transactions: make(map[uint]*Transaction),
	}
}

func copyUser(u *User) *User {
	c := *u
	return &c
}

func copyWallet(w *Wallet) *Wallet {
	c := *w
	c.Balances = make(map[string]float64, len(w.Balances))
	for k, v := range w.Balances {
		c.Balances[k] = v
	}
	return &c
}

func copyTx(t *Transaction) *Transaction {
	c := *t
	return &c
}

func (s *memStore) snapshot() (map[uint]*User, map[uint]*Wallet, map[uint]*Transaction) {
	users := make(map[uint]*User, len(s.users))
	for id, u := range s.users {
		users[id] = copyUser(u)
	}
	wallets := make(map[uint]*Wallet, len(s.wallets))
	for id, w := range s.wallets {
		wallets[id] = copyWallet(w)
	}
	transactions := make(map[uint]*Transaction, len(s.transactions))
	for id, t := range s.transactions {
		transactions[id] = copyTx(t)
	}
	return users, wallets, transactions
}

func (s *memStore) Atomically(ctx context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	users, wallets, transactions := s.snapshot()
	s.mu.Unlock()
	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users, s.wallets, s.transactions = users, wallets, transactions
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) UserByID(ctx context.Context, id uint) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *memStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *memStore) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	u.Id = s.nextUser
	s.users[u.Id] = copyUser(u)
	return nil
}

func (s *memStore) SaveUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Id] = copyUser(u)
	return nil
}

func (s *memStore) ListUsers(ctx context.Context, excludeAdmins bool) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []User
	for _, id := range ids {
		u := s.users[id]
		if excludeAdmins && u.IsAdmin {
			continue
		}
		out = append(out, *copyUser(u))
	}
	return out, nil
}

func (s *memStore) CountUsers(ctx context.Context, excludeAdmins bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, u := range s.users {
		if excludeAdmins && u.IsAdmin {
			continue
		}
		count++
	}
	return count, nil
}

func (s *memStore) WalletByID(ctx context.Context, id uint) (*Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, ErrWalletNotFound
	}
	return copyWallet(w), nil
}

func (s *memStore) WalletByAddress(ctx context.Context, address string) (*Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.Address == address {
			return copyWallet(w), nil
		}
	}
	return nil, ErrWalletNotFound
}

func (s *memStore) CreateWallet(ctx context.Context, w *Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWallet++
	w.Id = s.nextWallet
	s.wallets[w.Id] = copyWallet(w)
	return nil
}

func (s *memStore) SaveWallet(ctx context.Context, w *Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.Id] = copyWallet(w)
	return nil
}

func (s *memStore) TransactionByID(ctx context.Context, id uint) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, ErrTxNotFound
	}
	return copyTx(t), nil
}

func (s *memStore) CreateTransaction(ctx context.Context, t *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTx++
	t.Id = s.nextTx
	s.transactions[t.Id] = copyTx(t)
	return nil
}

func (s *memStore) SaveTransaction(ctx context.Context, t *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.Id] = copyTx(t)
	return nil
}

func (s *memStore) matches(t *Transaction, f TxFilter) bool {
	if f.WalletID != 0 && t.FromWalletId != f.WalletID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.ExternalTo != nil && t.IsExternal != *f.ExternalTo {
		return false
	}
	return true
}

func (s *memStore) ListTransactions(ctx context.Context, f TxFilter) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.transactions))
	for id := range s.transactions {
		ids = append(ids, id)
	}
	// newest first; ids are monotonic
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	var out []Transaction
	for _, id := range ids {
		t := s.transactions[id]
		if !s.matches(t, f) {
			continue
		}
		out = append(out, *copyTx(t))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) CountTransactions(ctx context.Context, f TxFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, t := range s.transactions {
		if s.matches(t, f) {
			count++
		}
	}
	return count, nil
}

func (s *memStore) VolumeByToken(ctx context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	volume := make(map[string]float64)
	for _, t := range s.transactions {
		if t.Type == TypeSend {
			volume[t.Token] += t.Amount
		}
	}
	return volume, nil
}
