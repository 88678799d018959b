/*
Package engine provides the core points-accounting engine for the sticker
loyalty program.

PURPOSE:
  This package contains the domain types and algorithms for awarding and
  redeeming loyalty stickers: the deterministic calculation rule, the
  idempotent transaction-ingestion workflow, and the ledger/balance
  subsystem with its non-negative-balance guarantee.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shopper: an opaque externally-assigned identity, created implicitly
  - Transaction: one immutable ingested purchase event (id = idempotency key)
  - TransactionItem: one basket line (sku, quantity, unit price, category)
  - LedgerEntry: one signed sticker movement (EARN or REDEEM), append-only

DESIGN PRINCIPLES:
  1. Immutability: nothing is updated in place; all mutation is by appending
  2. Precision: decimal.Decimal for money, never float64
  3. Type safety: ShopperID/TransactionID/StoreID cannot be mixed up
  4. Derived balance: the ledger is the single source of truth; balance is
     always computed by summation, never cached

SEE ALSO:
  - calc.go:   basket -> (total, stickers) calculation rule
  - ingest.go: idempotent transaction ingestion
  - redeem.go: atomic check-and-append redemption
  - store.go:  persistence contracts
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ShopperID string
type TransactionID string
type StoreID string

// =============================================================================
// SHOPPER - Implicitly created loyalty identity
// =============================================================================

// Shopper is created on first transaction referencing its id and is
// immutable afterwards. Only the creation timestamp is tracked.
type Shopper struct {
	ID        ShopperID
	CreatedAt time.Time
}

// =============================================================================
// TRANSACTION - One ingested purchase event
// =============================================================================

// Transaction records one purchase. The externally-assigned ID is globally
// unique and serves as the idempotency key for ingestion. Immutable after
// creation.
type Transaction struct {
	ID              TransactionID
	ShopperID       ShopperID
	StoreID         StoreID
	TotalAmount     decimal.Decimal
	StickersAwarded int64
	CreatedAt       time.Time

	Items []TransactionItem
}

// TransactionItem is one basket line, owned exclusively by its Transaction.
// Quantity zero is permitted; negative quantity or unit price is a
// validation failure.
type TransactionItem struct {
	SKU       string
	Name      string
	Quantity  int64
	UnitPrice decimal.Decimal
	Category  string
}

// =============================================================================
// LEDGER ENTRY - One signed sticker movement
// =============================================================================

type EntryType string

const (
	EntryEarn   EntryType = "EARN"
	EntryRedeem EntryType = "REDEEM"
)

// LedgerEntry is append-only: once written, never mutated or deleted.
// TransactionID is set for EARN entries and empty for REDEEM entries,
// since a redemption is not tied to a purchase.
type LedgerEntry struct {
	ID            string
	ShopperID     ShopperID
	TransactionID TransactionID
	Type          EntryType
	Delta         int64
	CreatedAt     time.Time
}

// =============================================================================
// REPORTING
// =============================================================================

// Stats is the read-side aggregation over transactions and the ledger.
type Stats struct {
	TotalStickersAwarded int64
	TotalTransactions    int64
	StickersPerStore     []StoreStickers
}

// StoreStickers is one row of the per-store breakdown, sorted by
// StickersAwarded descending in Stats.
type StoreStickers struct {
	StoreID         StoreID
	StickersAwarded int64
}
