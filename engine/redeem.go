/*
redeem.go - Atomic reward redemption

PURPOSE:
  Checks a shopper's balance against a reward cost and, if sufficient,
  appends one REDEEM ledger entry. The balance read and the append happen
  inside a single WithTx unit; because the store serializes those units,
  two concurrent redemptions cannot both pass the check against a stale
  snapshot and jointly overdraw the balance.

NOT IDEMPOTENT (by design):
  There is no caller-supplied idempotency key for redemptions. Retrying
  after an ambiguous failure re-runs the balance check rather than blindly
  reapplying the debit, but a double submission after a server-side
  success will charge twice. The append-only ledger at least makes that
  visible.

DIFFERENCE FROM INGESTION:
  Redemption does not implicitly create shoppers. An unknown shopper is
  ErrShopperNotFound.
*/
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedeemResult reports a successful redemption.
type RedeemResult struct {
	RewardCode       string
	Cost             int64
	RemainingBalance int64
}

// Redeem exchanges stickers for a catalog reward.
func (e *Engine) Redeem(ctx context.Context, shopperID ShopperID, rewardCode string) (RedeemResult, error) {
	cost, ok := e.Catalog.Cost(rewardCode)
	if !ok {
		return RedeemResult{}, fmt.Errorf("reward %q: %w", rewardCode, ErrRewardNotFound)
	}

	log := e.Log.With(
		zap.String("shopper_id", string(shopperID)),
		zap.String("reward_code", rewardCode),
	)

	var remaining int64
	err := e.Store.WithTx(ctx, func(s Store) error {
		shopper, err := s.GetShopper(ctx, shopperID)
		if err != nil {
			return err
		}
		if shopper == nil {
			return fmt.Errorf("shopper %s: %w", shopperID, ErrShopperNotFound)
		}

		balance, err := s.Balance(ctx, shopperID)
		if err != nil {
			return err
		}
		if balance < cost {
			return &InsufficientBalanceError{
				ShopperID: shopperID,
				Balance:   balance,
				Cost:      cost,
			}
		}

		remaining = balance - cost
		return s.AppendEntry(ctx, LedgerEntry{
			ID:        uuid.NewString(),
			ShopperID: shopperID,
			Type:      EntryRedeem,
			Delta:     -cost,
			CreatedAt: e.Now(),
		})
	})
	if err != nil {
		return RedeemResult{}, err
	}

	log.Info("reward redeemed",
		zap.Int64("cost", cost),
		zap.Int64("remaining_balance", remaining),
	)

	return RedeemResult{
		RewardCode:       rewardCode,
		Cost:             cost,
		RemainingBalance: remaining,
	}, nil
}
