/*
ingest.go - Idempotent transaction ingestion

PURPOSE:
  Processes an incoming purchase transaction exactly once per transaction
  id. The id is the sole idempotency key: a replayed submission returns
  the originally stored result and writes nothing.

ATOMIC UNIT:
  Shopper get-or-create, transaction insert, item inserts, and the EARN
  ledger entry commit together or not at all. A validation error or a
  storage fault leaves no partial transaction, no orphan items, and no
  ledger entry.

CONCURRENT DUPLICATES:
  Two near-simultaneous submissions with the same id race on the storage
  uniqueness constraint. The loser sees ErrDuplicateTransaction, re-reads
  the winner's row, and returns it as a replay instead of surfacing the
  storage error.
*/
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestInput is one submitted purchase transaction.
type IngestInput struct {
	TransactionID TransactionID
	ShopperID     ShopperID
	StoreID       StoreID
	Items         []TransactionItem
}

// IngestResult reports the stickers awarded for a transaction id.
// Replayed is true when the id had already been processed; the result is
// then the stored one and no new records were created.
type IngestResult struct {
	TransactionID   TransactionID
	StickersAwarded int64
	Replayed        bool
}

// Ingest processes one transaction idempotently.
func (e *Engine) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	if err := in.validate(); err != nil {
		return IngestResult{}, err
	}

	log := e.Log.With(
		zap.String("transaction_id", string(in.TransactionID)),
		zap.String("shopper_id", string(in.ShopperID)),
	)
	log.Info("transaction received")

	// Fast path: already processed.
	if existing, err := e.Store.GetTransaction(ctx, in.TransactionID); err != nil {
		return IngestResult{}, err
	} else if existing != nil {
		log.Info("transaction replayed")
		return replayOf(existing), nil
	}

	// Calculate outside the unit of work; the rule is pure and a validation
	// failure must not open a transaction at all.
	now := e.Now()
	calc, err := Calculate(in.Items, now)
	if err != nil {
		return IngestResult{}, err
	}

	tx := Transaction{
		ID:              in.TransactionID,
		ShopperID:       in.ShopperID,
		StoreID:         in.StoreID,
		TotalAmount:     calc.TotalAmount,
		StickersAwarded: calc.StickersAwarded,
		CreatedAt:       now,
		Items:           in.Items,
	}

	err = e.Store.WithTx(ctx, func(s Store) error {
		if err := s.EnsureShopper(ctx, in.ShopperID, now); err != nil {
			return err
		}
		if err := s.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		return s.AppendEntry(ctx, LedgerEntry{
			ID:            uuid.NewString(),
			ShopperID:     in.ShopperID,
			TransactionID: in.TransactionID,
			Type:          EntryEarn,
			Delta:         calc.StickersAwarded,
			CreatedAt:     now,
		})
	})

	if errors.Is(err, ErrDuplicateTransaction) {
		// Lost the race to a concurrent submission with the same id.
		// The winner's row is the result.
		existing, readErr := e.Store.GetTransaction(ctx, in.TransactionID)
		if readErr != nil {
			return IngestResult{}, readErr
		}
		if existing == nil {
			return IngestResult{}, fmt.Errorf("transaction %s vanished after duplicate insert: %w",
				in.TransactionID, ErrStorage)
		}
		log.Info("transaction replayed", zap.Bool("concurrent", true))
		return replayOf(existing), nil
	}
	if err != nil {
		return IngestResult{}, err
	}

	log.Info("transaction created",
		zap.String("total_amount", calc.TotalAmount.StringFixed(2)),
		zap.Int64("stickers_awarded", calc.StickersAwarded),
	)

	return IngestResult{
		TransactionID:   in.TransactionID,
		StickersAwarded: calc.StickersAwarded,
	}, nil
}

func (in IngestInput) validate() error {
	switch {
	case in.TransactionID == "":
		return &ValidationError{Field: "transaction_id", Reason: "required"}
	case in.ShopperID == "":
		return &ValidationError{Field: "shopper_id", Reason: "required"}
	case in.StoreID == "":
		return &ValidationError{Field: "store_id", Reason: "required"}
	}
	return nil
}

func replayOf(tx *Transaction) IngestResult {
	return IngestResult{
		TransactionID:   tx.ID,
		StickersAwarded: tx.StickersAwarded,
		Replayed:        true,
	}
}
