package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looplink/stickers/engine"
)

var testTime = time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)

func TestMemory_WithTx_RollsBackOnError(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := m.WithTx(ctx, func(s engine.Store) error {
		if err := s.EnsureShopper(ctx, "shopper-1", testTime); err != nil {
			return err
		}
		if err := s.AppendEntry(ctx, engine.LedgerEntry{
			ID: "entry-1", ShopperID: "shopper-1",
			Type: engine.EntryEarn, Delta: 3, CreatedAt: testTime,
		}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	shopper, err := m.GetShopper(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Nil(t, shopper)

	balance, err := m.Balance(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestMemory_WithTx_ReadsSeeUncommittedWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	err := m.WithTx(ctx, func(s engine.Store) error {
		if err := s.EnsureShopper(ctx, "shopper-1", testTime); err != nil {
			return err
		}
		if err := s.AppendEntry(ctx, engine.LedgerEntry{
			ID: "entry-1", ShopperID: "shopper-1",
			Type: engine.EntryEarn, Delta: 3, CreatedAt: testTime,
		}); err != nil {
			return err
		}
		balance, err := s.Balance(ctx, "shopper-1")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(3), balance)
		return nil
	})
	require.NoError(t, err)

	balance, err := m.Balance(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), balance)
}

func TestMemory_InsertTransaction_DuplicateID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.EnsureShopper(ctx, "shopper-1", testTime))

	tx := engine.Transaction{
		ID:          "tx-1",
		ShopperID:   "shopper-1",
		StoreID:     "store-1",
		TotalAmount: decimal.RequireFromString("10.00"),
		CreatedAt:   testTime,
	}
	require.NoError(t, m.InsertTransaction(ctx, tx))

	err := m.InsertTransaction(ctx, tx)
	assert.ErrorIs(t, err, engine.ErrDuplicateTransaction)
}

func TestMemory_ReturnedSlicesAreCopies(t *testing.T) {
	// Mutating a result must not corrupt the store.
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.EnsureShopper(ctx, "shopper-1", testTime))
	require.NoError(t, m.AppendEntry(ctx, engine.LedgerEntry{
		ID: "entry-1", ShopperID: "shopper-1",
		Type: engine.EntryEarn, Delta: 3, CreatedAt: testTime,
	}))

	entries, err := m.Entries(ctx, "shopper-1")
	require.NoError(t, err)
	entries[0].Delta = 999

	fresh, err := m.Entries(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), fresh[0].Delta)
}
