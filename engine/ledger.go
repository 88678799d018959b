/*
ledger.go - Balance reads and shopper detail

Balance is a derived value: the sum of a shopper's ledger entry deltas,
aggregated at read time. There is no cached counter to drift out of sync
with the append-only log.
*/
package engine

import (
	"context"
	"fmt"
)

// ShopperDetail is the read model for one shopper: current balance plus
// transaction history, newest first.
type ShopperDetail struct {
	Shopper      Shopper
	Balance      int64
	Transactions []Transaction
}

// Balance returns the shopper's current sticker balance. Unknown shoppers
// have balance zero; use Detail to distinguish them.
func (e *Engine) Balance(ctx context.Context, id ShopperID) (int64, error) {
	return e.Store.Balance(ctx, id)
}

// Detail returns the shopper with balance and transaction history.
// Returns ErrShopperNotFound if no record exists.
func (e *Engine) Detail(ctx context.Context, id ShopperID) (*ShopperDetail, error) {
	shopper, err := e.Store.GetShopper(ctx, id)
	if err != nil {
		return nil, err
	}
	if shopper == nil {
		return nil, fmt.Errorf("shopper %s: %w", id, ErrShopperNotFound)
	}

	balance, err := e.Store.Balance(ctx, id)
	if err != nil {
		return nil, err
	}

	txs, err := e.Store.TransactionsByShopper(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ShopperDetail{
		Shopper:      *shopper,
		Balance:      balance,
		Transactions: txs,
	}, nil
}
