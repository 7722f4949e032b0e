// Package position implements PositionManager (C3): the rebalance math
// that converts a wallet + target tick range into a swap-then-mint
// sequence, fee collection, and wallet updates, per spec.md §4.3. Grounded
// on original_source/src/backtester/backtester_core.rs's execute_actions
// (CreatePosition/ClosePosition arms) and price_calcs.rs's
// calculate_rebalance_amount.
package position

import "github.com/holiman/uint256"

// Wallet holds the strategy's token balances and lifetime fee income, per
// spec.md §3.
type Wallet struct {
	TokenADecimals uint
	TokenBDecimals uint

	AmountA *uint256.Int
	AmountB *uint256.Int

	FeesCollectedA *uint256.Int
	FeesCollectedB *uint256.Int
}

// NewWallet builds a Wallet with starting balances and zeroed fee income.
func NewWallet(amountA, amountB *uint256.Int, decimalsA, decimalsB uint) *Wallet {
	return &Wallet{
		TokenADecimals: decimalsA,
		TokenBDecimals: decimalsB,
		AmountA:        amountA,
		AmountB:        amountB,
		FeesCollectedA: uint256.NewInt(0),
		FeesCollectedB: uint256.NewInt(0),
	}
}

func (w *Wallet) creditA(amount *uint256.Int) { w.AmountA = new(uint256.Int).Add(w.AmountA, amount) }
func (w *Wallet) creditB(amount *uint256.Int) { w.AmountB = new(uint256.Int).Add(w.AmountB, amount) }

func (w *Wallet) debitA(amount *uint256.Int) error {
	if w.AmountA.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	w.AmountA = new(uint256.Int).Sub(w.AmountA, amount)
	return nil
}

func (w *Wallet) debitB(amount *uint256.Int) error {
	if w.AmountB.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	w.AmountB = new(uint256.Int).Sub(w.AmountB, amount)
	return nil
}
