package walletapi

import "context"

type SettleResult struct {
	Transaction *Transaction
	Debited     bool
}

// SettleStatus is the admin-only transition of a transaction record's
// status. Approving an external Processing record performs the deferred
// debit; a shortfall fails the whole update and leaves the record
// untouched.
//
//	Processing --(admin Success, external, sufficient funds)--> Success (+ debit)
//	Processing --(admin Success, insufficient funds)--> unchanged, error
//	Processing --(admin Failed)--> Failed
//	Processing --(admin Pending)--> Pending (label only, no semantics)
func (e *Engine) SettleStatus(ctx context.Context, actor Actor, txID uint, newStatus string) (*SettleResult, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}
	if !ValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	record, err := e.store.TransactionByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(record.FromWalletId)
	defer unlock()

	result := &SettleResult{}
	err = e.store.Atomically(ctx, func(s Store) error {
		tx, err := s.TransactionByID(ctx, txID)
		if err != nil {
			return err
		}
		deferredDebit := tx.Status == StatusProcessing && newStatus == StatusSuccess && tx.IsExternal
		if deferredDebit {
			wallet, err := s.WalletByID(ctx, tx.FromWalletId)
			if err != nil {
				return err
			}
			required := tx.Amount + tx.GasFee
			if wallet.Balance(tx.Token) < required {
				return &InsufficientBalanceError{
					Token:     tx.Token,
					Required:  required,
					Available: wallet.Balance(tx.Token),
				}
			}
			wallet.credit(tx.Token, -required)
			if err := s.SaveWallet(ctx, wallet); err != nil {
				return err
			}
			result.Debited = true
		}
		tx.Status = newStatus
		if err := s.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		result.Transaction = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	if e.Notifier != nil {
		e.Notifier.Settled(ctx, result.Transaction, result.Debited)
	}
	return result, nil
}
