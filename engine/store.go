/*
store.go - Persistence contracts for the sticker engine

PURPOSE:
  Defines the interface between the engine and the database. The durable
  store is the only shared mutable resource in the system; all mutation
  goes through the atomic units described in ingest.go and redeem.go.

APPEND-ONLY CONTRACT:
  The ledger has exactly one write operation: AppendEntry. There is no
  Update or Delete on ledger entries or transactions. Ever.

UNIQUENESS:
  InsertTransaction must enforce transaction id uniqueness at the storage
  layer and report a violation as ErrDuplicateTransaction. That constraint
  is the only cross-request coordination ingestion needs; the ingestion
  workflow converts the losing concurrent writer into a replay.

ATOMIC UNITS:
  TxStore.WithTx runs a function against a transactional view of the
  store. Either every write inside commits, or none do. Implementations
  must serialize WithTx units so that redemption's check-then-append is
  equivalent to holding an exclusive lock on the shopper's ledger.

IMPLEMENTATIONS:
  - store/sqlite:     production SQLite (database/sql)
  - engine/store:     in-memory, for tests and development
*/
package engine

import (
	"context"
	"time"
)

// Store handles persistence of shoppers, transactions, and ledger entries.
type Store interface {
	// GetShopper returns the shopper or nil if no record exists.
	GetShopper(ctx context.Context, id ShopperID) (*Shopper, error)

	// EnsureShopper creates the shopper if absent (get-or-create).
	// Existing records are never modified.
	EnsureShopper(ctx context.Context, id ShopperID, createdAt time.Time) error

	// GetTransaction returns the transaction with its items, or nil if the
	// id is unknown.
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)

	// InsertTransaction persists a transaction and all of its items.
	// Returns ErrDuplicateTransaction if the id already exists.
	InsertTransaction(ctx context.Context, tx Transaction) error

	// TransactionsByShopper returns a shopper's transactions, newest first.
	TransactionsByShopper(ctx context.Context, id ShopperID) ([]Transaction, error)

	// AppendEntry appends one ledger entry. This is the ONLY ledger write.
	AppendEntry(ctx context.Context, entry LedgerEntry) error

	// Entries returns all ledger entries for a shopper, oldest first.
	Entries(ctx context.Context, id ShopperID) ([]LedgerEntry, error)

	// Balance returns the sum of the shopper's ledger deltas. Zero for
	// unknown shoppers; callers distinguish those with GetShopper.
	Balance(ctx context.Context, id ShopperID) (int64, error)

	// Stats returns the read-side aggregation over all records.
	Stats(ctx context.Context) (Stats, error)
}

// TxStore wraps Store with an all-or-nothing unit of work.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional Store view.
	// If fn returns an error, every write is rolled back.
	// Units are serialized: no two WithTx bodies interleave.
	WithTx(ctx context.Context, fn func(Store) error) error
}
