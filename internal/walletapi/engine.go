package walletapi

import (
	"context"
	"sync"
)

// Notifier receives side-channel events from the engines. The queue-backed
// implementation lives in internal/tasks; tests leave it nil.
type Notifier interface {
	ReviewRequested(ctx context.Context, tx *Transaction)
	Settled(ctx context.Context, tx *Transaction, debited bool)
}

// Engine owns every balance mutation. All check-then-write sequences run
// under the owning wallet's lock and inside one store transaction, so a
// persisted balance is never negative and a debit never lands without its
// transaction record.
type Engine struct {
	store    Store
	locks    *walletLocks
	regMu    sync.Mutex
	Notifier Notifier
}

func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
		locks: newWalletLocks(),
	}
}

type SendParams struct {
	ToAddress string  `json:"toAddress" binding:"required"`
	Token     string  `json:"token" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Network   string  `json:"network" binding:"required"`
	GasFee    float64 `json:"gasFee"`
}

type SendResult struct {
	Hash             string  `json:"hash"`
	Status           string  `json:"status"`
	Token            string  `json:"token"`
	Amount           float64 `json:"amount"`
	Network          string  `json:"network"`
	GasFee           float64 `json:"gasFee"`
	IsExternal       bool    `json:"isExternal"`
	ReceiverCredited bool    `json:"receiverCredited"`
}

// Send transfers one token to an address. A known address settles
// immediately; an unknown one only creates a Processing record whose debit
// is deferred until an admin approves it.
func (e *Engine) Send(ctx context.Context, actor Actor, p SendParams) (*SendResult, error) {
	if err := validateTransferParams(p.Token, p.Network, p.Amount, p.GasFee); err != nil {
		return nil, err
	}

	receiver, err := e.store.WalletByAddress(ctx, p.ToAddress)
	if err != nil && err != ErrWalletNotFound {
		return nil, err
	}

	required := p.Amount + p.GasFee
	hash := NewTxHash()
	result := &SendResult{
		Hash:    hash,
		Token:   p.Token,
		Amount:  p.Amount,
		Network: p.Network,
		GasFee:  p.GasFee,
	}

	if receiver == nil {
		// External: hold the debit until settlement, but reject requests
		// that could never settle against the current balance.
		unlock := e.locks.Lock(actor.WalletID)
		defer unlock()

		var record *Transaction
		err = e.store.Atomically(ctx, func(s Store) error {
			sender, err := s.WalletByID(ctx, actor.WalletID)
			if err != nil {
				return err
			}
			if sender.Balance(p.Token) < required {
				return &InsufficientBalanceError{
					Token:     p.Token,
					Required:  required,
					Available: sender.Balance(p.Token),
				}
			}
			record = &Transaction{
				FromWalletId: sender.Id,
				ToAddress:    p.ToAddress,
				Token:        p.Token,
				Amount:       p.Amount,
				Network:      p.Network,
				GasFee:       p.GasFee,
				Status:       StatusProcessing,
				Hash:         hash,
				Type:         TypeSend,
				IsExternal:   true,
			}
			return s.CreateTransaction(ctx, record)
		})
		if err != nil {
			return nil, err
		}
		result.Status = StatusProcessing
		result.IsExternal = true
		if e.Notifier != nil {
			e.Notifier.ReviewRequested(ctx, record)
		}
		return result, nil
	}

	unlock := e.locks.Lock(actor.WalletID, receiver.Id)
	defer unlock()

	err = e.store.Atomically(ctx, func(s Store) error {
		sender, err := s.WalletByID(ctx, actor.WalletID)
		if err != nil {
			return err
		}
		to, err := s.WalletByID(ctx, receiver.Id)
		if err != nil {
			return err
		}
		if sender.Balance(p.Token) < required {
			return &InsufficientBalanceError{
				Token:     p.Token,
				Required:  required,
				Available: sender.Balance(p.Token),
			}
		}
		sender.credit(p.Token, -required)
		to.credit(p.Token, p.Amount) // fee is never charged to the receiver
		if err := s.SaveWallet(ctx, sender); err != nil {
			return err
		}
		if err := s.SaveWallet(ctx, to); err != nil {
			return err
		}
		senderRecord := &Transaction{
			FromWalletId: sender.Id,
			ToAddress:    p.ToAddress,
			Token:        p.Token,
			Amount:       p.Amount,
			Network:      p.Network,
			GasFee:       p.GasFee,
			Status:       StatusSuccess,
			Hash:         hash,
			Type:         TypeSend,
		}
		if err := s.CreateTransaction(ctx, senderRecord); err != nil {
			return err
		}
		receiverRecord := &Transaction{
			FromWalletId: to.Id,
			ToAddress:    sender.Address,
			Token:        p.Token,
			Amount:       p.Amount,
			Network:      p.Network,
			GasFee:       0,
			Status:       StatusSuccess,
			Hash:         hash,
			Type:         TypeReceive,
		}
		return s.CreateTransaction(ctx, receiverRecord)
	})
	if err != nil {
		return nil, err
	}
	result.Status = StatusSuccess
	result.ReceiverCredited = true
	return result, nil
}

type SwapParams struct {
	FromToken  string  `json:"fromToken" binding:"required"`
	ToToken    string  `json:"toToken" binding:"required"`
	FromAmount float64 `json:"fromAmount" binding:"required"`
	ToAmount   float64 `json:"toAmount" binding:"required"`
	Network    string  `json:"network" binding:"required"`
	GasFee     float64 `json:"gasFee"`
}

type SwapResult struct {
	Hash       string  `json:"hash"`
	Status     string  `json:"status"`
	FromToken  string  `json:"fromToken"`
	ToToken    string  `json:"toToken"`
	FromAmount float64 `json:"fromAmount"`
	ToAmount   float64 `json:"toAmount"`
	Network    string  `json:"network"`
	GasFee     float64 `json:"gasFee"`
}

// Swap exchanges fromToken for toToken inside one wallet. The rate is
// whatever the caller computed from market data; swaps settle immediately
// and never enter the Processing state.
func (e *Engine) Swap(ctx context.Context, actor Actor, p SwapParams) (*SwapResult, error) {
	if err := validateTransferParams(p.FromToken, p.Network, p.FromAmount, p.GasFee); err != nil {
		return nil, err
	}
	if !ValidToken(p.ToToken) {
		return nil, ErrInvalidToken
	}
	if p.ToAmount < 0 {
		return nil, ErrInvalidAmount
	}

	required := p.FromAmount + p.GasFee
	hash := NewTxHash()

	unlock := e.locks.Lock(actor.WalletID)
	defer unlock()

	err := e.store.Atomically(ctx, func(s Store) error {
		wallet, err := s.WalletByID(ctx, actor.WalletID)
		if err != nil {
			return err
		}
		if wallet.Balance(p.FromToken) < required {
			return &InsufficientBalanceError{
				Token:     p.FromToken,
				Required:  required,
				Available: wallet.Balance(p.FromToken),
			}
		}
		wallet.credit(p.FromToken, -required)
		wallet.credit(p.ToToken, p.ToAmount)
		if err := s.SaveWallet(ctx, wallet); err != nil {
			return err
		}
		record := &Transaction{
			FromWalletId: wallet.Id,
			ToAddress:    wallet.Address, // swap is to self
			Token:        p.FromToken,
			Amount:       p.FromAmount,
			Network:      p.Network,
			GasFee:       p.GasFee,
			Status:       StatusSuccess,
			Hash:         hash,
			Type:         TypeSwap,
		}
		return s.CreateTransaction(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return &SwapResult{
		Hash:       hash,
		Status:     StatusSuccess,
		FromToken:  p.FromToken,
		ToToken:    p.ToToken,
		FromAmount: p.FromAmount,
		ToAmount:   p.ToAmount,
		Network:    p.Network,
		GasFee:     p.GasFee,
	}, nil
}

// Balances reads the current per-token balances of one wallet.
func (e *Engine) Balances(ctx context.Context, walletID uint) (*Wallet, error) {
	return e.store.WalletByID(ctx, walletID)
}

// SetBalance overwrites one token balance. Demo top-up only.
func (e *Engine) SetBalance(ctx context.Context, actor Actor, token string, amount float64) (*Wallet, error) {
	if !ValidToken(token) {
		return nil, ErrInvalidToken
	}
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	unlock := e.locks.Lock(actor.WalletID)
	defer unlock()

	var wallet *Wallet
	err := e.store.Atomically(ctx, func(s Store) error {
		w, err := s.WalletByID(ctx, actor.WalletID)
		if err != nil {
			return err
		}
		if w.Balances == nil {
			w.Balances = make(map[string]float64)
		}
		w.Balances[token] = amount
		wallet = w
		return s.SaveWallet(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// History lists the wallet's transaction records, most recent first.
func (e *Engine) History(ctx context.Context, walletID uint, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.store.ListTransactions(ctx, TxFilter{WalletID: walletID, Limit: limit})
}

func validateTransferParams(token, network string, amount, gasFee float64) error {
	if !ValidToken(token) {
		return ErrInvalidToken
	}
	if !ValidNetwork(network) {
		return ErrInvalidNetwork
	}
	if amount <= 0 || gasFee < 0 {
		return ErrInvalidAmount
	}
	return nil
}
