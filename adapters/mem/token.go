// Package mem provides in-memory implementations of the marketplace's
// external collaborators: a fungible payment-token ledger and a collectible
// asset registry. They back the standalone server and the test suite.
package mem

import (
	"context"
	"sync"

	"github.com/aaronwang/nft-marketplace/market"
	"github.com/aaronwang/nft-marketplace/models"
)

type allowanceKey struct {
	owner   models.Identity
	spender models.Identity
}

// TokenLedger is an in-memory payment rail with standard balance/allowance
// semantics.
type TokenLedger struct {
	mu         sync.Mutex
	balances   map[models.Identity]uint64
	allowances map[allowanceKey]uint64
}

// NewTokenLedger creates an empty token ledger.
func NewTokenLedger() *TokenLedger {
	return &TokenLedger{
		balances:   make(map[models.Identity]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

// Credit mints balance to an identity. Test and bootstrap helper; not part of
// the market.PaymentRail contract.
func (t *TokenLedger) Credit(id models.Identity, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[id] += amount
}

// BalanceOf returns the balance of an identity.
func (t *TokenLedger) BalanceOf(_ context.Context, id models.Identity) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[id], nil
}

// Transfer moves the caller's own funds.
func (t *TokenLedger) Transfer(_ context.Context, from, to models.Identity, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom moves funds on behalf of another identity, consuming the
// spender's allowance.
func (t *TokenLedger) TransferFrom(_ context.Context, spender, from, to models.Identity, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if spender != from {
		key := allowanceKey{owner: from, spender: spender}
		if t.allowances[key] < amount {
			return market.ErrInsufficientAllowance
		}
		if err := t.move(from, to, amount); err != nil {
			return err
		}
		t.allowances[key] -= amount
		return nil
	}
	return t.move(from, to, amount)
}

// Approve grants a spender an allowance over the owner's funds.
func (t *TokenLedger) Approve(_ context.Context, owner, spender models.Identity, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[allowanceKey{owner: owner, spender: spender}] = amount
	return nil
}

func (t *TokenLedger) move(from, to models.Identity, amount uint64) error {
	if t.balances[from] < amount {
		return market.ErrInsufficientBalance
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}
