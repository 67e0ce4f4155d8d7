package walletapi

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store over postgres. Inside Atomically, wallet and
// transaction fetches take FOR UPDATE row locks.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Atomically(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (s *GormStore) locking(db *gorm.DB) *gorm.DB {
	if s.inTx {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (s *GormStore) UserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	res := s.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &user, nil
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	res := s.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, u *User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GormStore) SaveUser(ctx context.Context, u *User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *GormStore) ListUsers(ctx context.Context, excludeAdmins bool) ([]User, error) {
	var users []User
	q := s.db.WithContext(ctx)
	if excludeAdmins {
		q = q.Where("is_admin = ?", false)
	}
	res := q.Order("created_at ASC").Find(&users)
	return users, res.Error
}

func (s *GormStore) CountUsers(ctx context.Context, excludeAdmins bool) (int64, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&User{})
	if excludeAdmins {
		q = q.Where("is_admin = ?", false)
	}
	res := q.Count(&count)
	return count, res.Error
}

func (s *GormStore) WalletByID(ctx context.Context, id uint) (*Wallet, error) {
	var wallet Wallet
	res := s.locking(s.db.WithContext(ctx)).Where("id = ?", id).First(&wallet)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &wallet, nil
}

func (s *GormStore) WalletByAddress(ctx context.Context, address string) (*Wallet, error) {
	var wallet Wallet
	res := s.locking(s.db.WithContext(ctx)).Where("address = ?", address).First(&wallet)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &wallet, nil
}

func (s *GormStore) CreateWallet(ctx context.Context, w *Wallet) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *GormStore) SaveWallet(ctx context.Context, w *Wallet) error {
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *GormStore) TransactionByID(ctx context.Context, id uint) (*Transaction, error) {
	var t Transaction
	res := s.locking(s.db.WithContext(ctx)).Where("id = ?", id).First(&t)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrTxNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &t, nil
}

func (s *GormStore) CreateTransaction(ctx context.Context, t *Transaction) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *GormStore) SaveTransaction(ctx context.Context, t *Transaction) error {
	return s.db.WithContext(ctx).Save(t).Error
}

func (s *GormStore) filtered(ctx context.Context, f TxFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Transaction{})
	if f.WalletID != 0 {
		q = q.Where("from_wallet_id = ?", f.WalletID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ExternalTo != nil {
		q = q.Where("is_external = ?", *f.ExternalTo)
	}
	return q
}

func (s *GormStore) ListTransactions(ctx context.Context, f TxFilter) ([]Transaction, error) {
	var transactions []Transaction
	q := s.filtered(ctx, f).Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	res := q.Find(&transactions)
	return transactions, res.Error
}

func (s *GormStore) CountTransactions(ctx context.Context, f TxFilter) (int64, error) {
	var count int64
	res := s.filtered(ctx, f).Count(&count)
	return count, res.Error
}

func (s *GormStore) VolumeByToken(ctx context.Context) (map[string]float64, error) {
	var rows []struct {
		Token string
		Total float64
	}
	res := s.db.WithContext(ctx).Model(&Transaction{}).
		Select("token, SUM(amount) AS total").
		Where("type = ?", TypeSend).
		Group("token").
		Scan(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	volume := make(map[string]float64, len(rows))
	for _, row := range rows {
		volume[row.Token] = row.Total
	}
	return volume, nil
}
