/*
Package store provides an in-memory engine.TxStore implementation.

Used by tests and for ephemeral development servers. Mirrors the SQLite
store's semantics: transaction-id uniqueness, append-only ledger, and
serialized WithTx units with rollback via snapshot/restore.
*/
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/looplink/stickers/engine"
)

// Memory is an in-memory store. Safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	shoppers     map[engine.ShopperID]engine.Shopper
	transactions map[engine.TransactionID]engine.Transaction
	byShopper    map[engine.ShopperID][]engine.TransactionID // insertion order
	entries      map[engine.ShopperID][]engine.LedgerEntry
}

func NewMemory() *Memory {
	return &Memory{
		shoppers:     make(map[engine.ShopperID]engine.Shopper),
		transactions: make(map[engine.TransactionID]engine.Transaction),
		byShopper:    make(map[engine.ShopperID][]engine.TransactionID),
		entries:      make(map[engine.ShopperID][]engine.LedgerEntry),
	}
}

var _ engine.TxStore = (*Memory)(nil)

// =============================================================================
// READS
// =============================================================================

func (m *Memory) GetShopper(_ context.Context, id engine.ShopperID) (*engine.Shopper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getShopperLocked(id), nil
}

func (m *Memory) getShopperLocked(id engine.ShopperID) *engine.Shopper {
	if s, ok := m.shoppers[id]; ok {
		return &s
	}
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, id engine.TransactionID) (*engine.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getTransactionLocked(id), nil
}

func (m *Memory) getTransactionLocked(id engine.TransactionID) *engine.Transaction {
	if tx, ok := m.transactions[id]; ok {
		return &tx
	}
	return nil
}

func (m *Memory) TransactionsByShopper(_ context.Context, id engine.ShopperID) ([]engine.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transactionsByShopperLocked(id), nil
}

func (m *Memory) transactionsByShopperLocked(id engine.ShopperID) []engine.Transaction {
	ids := m.byShopper[id]
	txs := make([]engine.Transaction, 0, len(ids))
	// Newest first: reverse insertion order.
	for i := len(ids) - 1; i >= 0; i-- {
		txs = append(txs, m.transactions[ids[i]])
	}
	return txs
}

func (m *Memory) Entries(_ context.Context, id engine.ShopperID) ([]engine.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]engine.LedgerEntry, len(m.entries[id]))
	copy(result, m.entries[id])
	return result, nil
}

func (m *Memory) Balance(_ context.Context, id engine.ShopperID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balanceLocked(id), nil
}

func (m *Memory) balanceLocked(id engine.ShopperID) int64 {
	var balance int64
	for _, e := range m.entries[id] {
		balance += e.Delta
	}
	return balance
}

func (m *Memory) Stats(_ context.Context) (engine.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statsLocked(), nil
}

func (m *Memory) statsLocked() engine.Stats {
	var stats engine.Stats
	for _, shopperEntries := range m.entries {
		for _, e := range shopperEntries {
			if e.Type == engine.EntryEarn {
				stats.TotalStickersAwarded += e.Delta
			}
		}
	}

	perStore := make(map[engine.StoreID]int64)
	for _, tx := range m.transactions {
		stats.TotalTransactions++
		perStore[tx.StoreID] += tx.StickersAwarded
	}
	for storeID, awarded := range perStore {
		stats.StickersPerStore = append(stats.StickersPerStore, engine.StoreStickers{
			StoreID:         storeID,
			StickersAwarded: awarded,
		})
	}
	sort.Slice(stats.StickersPerStore, func(i, j int) bool {
		a, b := stats.StickersPerStore[i], stats.StickersPerStore[j]
		if a.StickersAwarded != b.StickersAwarded {
			return a.StickersAwarded > b.StickersAwarded
		}
		return a.StoreID < b.StoreID
	})

	return stats
}

// =============================================================================
// WRITES
// =============================================================================

func (m *Memory) EnsureShopper(_ context.Context, id engine.ShopperID, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureShopperLocked(id, createdAt)
	return nil
}

func (m *Memory) ensureShopperLocked(id engine.ShopperID, createdAt time.Time) {
	if _, ok := m.shoppers[id]; !ok {
		m.shoppers[id] = engine.Shopper{ID: id, CreatedAt: createdAt}
	}
}

func (m *Memory) InsertTransaction(_ context.Context, tx engine.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertTransactionLocked(tx)
}

func (m *Memory) insertTransactionLocked(tx engine.Transaction) error {
	if _, ok := m.transactions[tx.ID]; ok {
		return engine.ErrDuplicateTransaction
	}
	m.transactions[tx.ID] = tx
	m.byShopper[tx.ShopperID] = append(m.byShopper[tx.ShopperID], tx.ID)
	return nil
}

func (m *Memory) AppendEntry(_ context.Context, entry engine.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendEntryLocked(entry)
	return nil
}

func (m *Memory) appendEntryLocked(entry engine.LedgerEntry) {
	m.entries[entry.ShopperID] = append(m.entries[entry.ShopperID], entry)
}

// =============================================================================
// TRANSACTIONAL VIEW
// =============================================================================

// WithTx executes fn under the store's write lock, simulating an atomic
// unit with a snapshot + rollback on error. Holding the lock for the whole
// unit also serializes check-then-append sequences, which is what gives
// redemption its isolation.
func (m *Memory) WithTx(_ context.Context, fn func(engine.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	shoppers     map[engine.ShopperID]engine.Shopper
	transactions map[engine.TransactionID]engine.Transaction
	byShopper    map[engine.ShopperID][]engine.TransactionID
	entries      map[engine.ShopperID][]engine.LedgerEntry
}

func (m *Memory) snapshot() memorySnapshot {
	snap := memorySnapshot{
		shoppers:     make(map[engine.ShopperID]engine.Shopper, len(m.shoppers)),
		transactions: make(map[engine.TransactionID]engine.Transaction, len(m.transactions)),
		byShopper:    make(map[engine.ShopperID][]engine.TransactionID, len(m.byShopper)),
		entries:      make(map[engine.ShopperID][]engine.LedgerEntry, len(m.entries)),
	}
	for k, v := range m.shoppers {
		snap.shoppers[k] = v
	}
	for k, v := range m.transactions {
		snap.transactions[k] = v
	}
	for k, v := range m.byShopper {
		snap.byShopper[k] = append([]engine.TransactionID(nil), v...)
	}
	for k, v := range m.entries {
		snap.entries[k] = append([]engine.LedgerEntry(nil), v...)
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.shoppers = snap.shoppers
	m.transactions = snap.transactions
	m.byShopper = snap.byShopper
	m.entries = snap.entries
}

// txView dispatches to the parent's *Locked methods; the parent's write
// lock is held for the duration of WithTx.
type txView struct {
	parent *Memory
}

func (v *txView) GetShopper(_ context.Context, id engine.ShopperID) (*engine.Shopper, error) {
	return v.parent.getShopperLocked(id), nil
}

func (v *txView) EnsureShopper(_ context.Context, id engine.ShopperID, createdAt time.Time) error {
	v.parent.ensureShopperLocked(id, createdAt)
	return nil
}

func (v *txView) GetTransaction(_ context.Context, id engine.TransactionID) (*engine.Transaction, error) {
	return v.parent.getTransactionLocked(id), nil
}

func (v *txView) InsertTransaction(_ context.Context, tx engine.Transaction) error {
	return v.parent.insertTransactionLocked(tx)
}

func (v *txView) TransactionsByShopper(_ context.Context, id engine.ShopperID) ([]engine.Transaction, error) {
	return v.parent.transactionsByShopperLocked(id), nil
}

func (v *txView) AppendEntry(_ context.Context, entry engine.LedgerEntry) error {
	v.parent.appendEntryLocked(entry)
	return nil
}

func (v *txView) Entries(_ context.Context, id engine.ShopperID) ([]engine.LedgerEntry, error) {
	result := make([]engine.LedgerEntry, len(v.parent.entries[id]))
	copy(result, v.parent.entries[id])
	return result, nil
}

func (v *txView) Balance(_ context.Context, id engine.ShopperID) (int64, error) {
	return v.parent.balanceLocked(id), nil
}

func (v *txView) Stats(_ context.Context) (engine.Stats, error) {
	return v.parent.statsLocked(), nil
}
