package custody

import (
	"context"
	"fmt"
	"sync"
)

// PayoutHook is called after a payout credits the recipient.
// Tests use this to model recipients that run code on receipt of funds.
type PayoutHook func(ctx context.Context, recipient string, amount int64, asset Asset) error

// Ledger is an in-memory custody adapter. It tracks per-account
// balances, token allowances for pre-authorized pulls, and the
// funds currently held in custody per asset.
type Ledger struct {
	lock       sync.Mutex
	balances   map[string]map[Asset]int64
	allowances map[string]map[Asset]int64
	held       map[Asset]int64
	payoutHook PayoutHook
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[string]map[Asset]int64),
		allowances: make(map[string]map[Asset]int64),
		held:       make(map[Asset]int64),
	}
}

// SetPayoutHook registers a hook invoked after each successful payout.
// The hook runs without the ledger lock held.
func (l *Ledger) SetPayoutHook(hook PayoutHook) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.payoutHook = hook
}

// Credit adds funds to an account outside of custody.
func (l *Ledger) Credit(account string, amount int64, asset Asset) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.credit(account, amount, asset)
}

// Approve pre-authorizes custody to pull up to amount of a token
// asset from the account. Has no effect for the native asset, which
// is attached to calls directly.
func (l *Ledger) Approve(account string, amount int64, asset Asset) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if _, ok := l.allowances[account]; !ok {
		l.allowances[account] = make(map[Asset]int64)
	}
	l.allowances[account][asset] = amount
}

// Balance returns the account's balance for the asset.
func (l *Ledger) Balance(account string, asset Asset) int64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.balances[account][asset]
}

// Held returns the total funds currently in custody for the asset.
func (l *Ledger) Held(asset Asset) int64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.held[asset]
}

// Deposit pulls amount of asset from payer into custody. Token
// deposits additionally consume the payer's allowance.
func (l *Ledger) Deposit(ctx context.Context, payer string, amount int64, asset Asset) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if amount <= 0 {
		return fmt.Errorf("deposit amount must be positive, got %d", amount)
	}
	if !asset.IsNative() {
		if l.allowances[payer][asset] < amount {
			return fmt.Errorf("allowance of %s for %s is below %d", asset, payer, amount)
		}
	}
	if l.balances[payer][asset] < amount {
		return fmt.Errorf("balance of %s for %s is below %d", asset, payer, amount)
	}

	if !asset.IsNative() {
		l.allowances[payer][asset] -= amount
	}
	l.balances[payer][asset] -= amount
	l.held[asset] += amount
	return nil
}

// Payout pushes amount of asset from custody to recipient.
func (l *Ledger) Payout(ctx context.Context, recipient string, amount int64, asset Asset) error {
	l.lock.Lock()

	if amount <= 0 {
		l.lock.Unlock()
		return fmt.Errorf("payout amount must be positive, got %d", amount)
	}
	if l.held[asset] < amount {
		l.lock.Unlock()
		return fmt.Errorf("custody holds %d of %s, cannot pay out %d", l.held[asset], asset, amount)
	}

	l.held[asset] -= amount
	l.credit(recipient, amount, asset)
	hook := l.payoutHook
	l.lock.Unlock()

	if hook != nil {
		if err := hook(ctx, recipient, amount, asset); err != nil {
			// a rejected receipt undoes the credit so the call stays atomic
			l.lock.Lock()
			l.balances[recipient][asset] -= amount
			l.held[asset] += amount
			l.lock.Unlock()
			return fmt.Errorf("recipient rejected payout: %v", err)
		}
	}
	return nil
}

func (l *Ledger) credit(account string, amount int64, asset Asset) {
	if _, ok := l.balances[account]; !ok {
		l.balances[account] = make(map[Asset]int64)
	}
	l.balances[account][asset] += amount
}
