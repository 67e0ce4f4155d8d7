package walletapi

import (
	"context"
	"fmt"
)

// Register creates a user together with its one wallet. The wallet link is
// set at creation and never changes afterwards.
func (e *Engine) Register(ctx context.Context, email, passwordHash string) (*User, *Wallet, error) {
	if _, err := e.store.UserByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if err != ErrUserNotFound {
		return nil, nil, err
	}

	// Serialized so two concurrent registrations cannot draw the same
	// userNN handle from the count.
	e.regMu.Lock()
	defer e.regMu.Unlock()

	var (
		user   *User
		wallet *Wallet
	)
	err := e.store.Atomically(ctx, func(s Store) error {
		count, err := s.CountUsers(ctx, false)
		if err != nil {
			return err
		}
		user = &User{
			UserId:             fmt.Sprintf("user%02d", count+1),
			Email:              email,
			Password:           passwordHash,
			PushNotifications:  true,
			EmailNotifications: true,
			PriceAlerts:        true,
			TransactionAlerts:  true,
		}
		if err := s.CreateUser(ctx, user); err != nil {
			return err
		}
		wallet = NewWallet(user.Id)
		if err := s.CreateWallet(ctx, wallet); err != nil {
			return err
		}
		user.WalletId = wallet.Id
		return s.SaveUser(ctx, user)
	})
	if err != nil {
		return nil, nil, err
	}
	return user, wallet, nil
}
