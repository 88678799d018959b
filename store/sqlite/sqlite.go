/*
Package sqlite provides the SQLite-backed implementation of the engine's
storage contracts.

PURPOSE:
  Implements engine.Store and engine.TxStore using database/sql. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for transactions, transaction
  items, or ledger entries.

KEY TABLES:
  shoppers:          implicitly created loyalty identities
  transactions:      immutable purchase records (PRIMARY KEY = the
                     externally supplied id, which enforces idempotency)
  transaction_items: basket lines, owned by their transaction
  sticker_ledger:    append-only signed sticker movements

CONCURRENCY:
  A store-wide RWMutex serializes WithTx units and writes. That is what
  makes redemption's balance-check-then-append atomically isolated here;
  with PostgreSQL the same guarantee would come from SELECT ... FOR UPDATE
  or a serializable transaction instead.

WAL MODE:
  SQLite is opened with WAL for better read concurrency and crash
  recovery. Connections are capped at one so ":memory:" databases see a
  single shared database rather than one per connection.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/looplink/stickers/engine"
)

// Store implements engine.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.TxStore = (*Store)(nil)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shoppers (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	-- Append-only purchase records. The primary key is the externally
	-- assigned transaction id: the ingestion idempotency key.
	CREATE TABLE IF NOT EXISTS transactions (
		id               TEXT PRIMARY KEY,
		shopper_id       TEXT NOT NULL REFERENCES shoppers(id) ON DELETE CASCADE,
		store_id         TEXT NOT NULL,
		total_amount     TEXT NOT NULL,
		stickers_awarded INTEGER NOT NULL,
		created_at       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_shopper
		ON transactions(shopper_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_store
		ON transactions(store_id);

	CREATE TABLE IF NOT EXISTS transaction_items (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		sku            TEXT NOT NULL,
		name           TEXT NOT NULL,
		quantity       INTEGER NOT NULL,
		unit_price     TEXT NOT NULL,
		category       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_transaction
		ON transaction_items(transaction_id);

	-- Append-only ledger. transaction_id is set for EARN entries only.
	CREATE TABLE IF NOT EXISTS sticker_ledger (
		id             TEXT PRIMARY KEY,
		shopper_id     TEXT NOT NULL REFERENCES shoppers(id) ON DELETE CASCADE,
		transaction_id TEXT REFERENCES transactions(id),
		entry_type     TEXT NOT NULL CHECK (entry_type IN ('EARN', 'REDEEM')),
		delta          INTEGER NOT NULL,
		created_at     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_shopper
		ON sticker_ledger(shopper_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so the same statement
// helpers serve plain calls and WithTx units.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// SHOPPERS
// =============================================================================

func (s *Store) GetShopper(ctx context.Context, id engine.ShopperID) (*engine.Shopper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getShopper(ctx, s.db, id)
}

func getShopper(ctx context.Context, q querier, id engine.ShopperID) (*engine.Shopper, error) {
	var createdAt string
	err := q.QueryRowContext(ctx,
		"SELECT created_at FROM shoppers WHERE id = ?", id,
	).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shopper: %w", err)
	}

	shopper := &engine.Shopper{ID: id}
	shopper.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return shopper, nil
}

func (s *Store) EnsureShopper(ctx context.Context, id engine.ShopperID, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ensureShopper(ctx, s.db, id, createdAt)
}

func ensureShopper(ctx context.Context, q querier, id engine.ShopperID, createdAt time.Time) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO shoppers (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING",
		id, createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure shopper: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *Store) GetTransaction(ctx context.Context, id engine.TransactionID) (*engine.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTransaction(ctx, s.db, id)
}

func getTransaction(ctx context.Context, q querier, id engine.TransactionID) (*engine.Transaction, error) {
	txs, err := queryTransactions(ctx, q,
		selectTransactions+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	tx := txs[0]
	if tx.Items, err = queryItems(ctx, q, tx.ID); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx engine.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertTransaction(ctx, s.db, tx)
}

func insertTransaction(ctx context.Context, q querier, tx engine.Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, shopper_id, store_id, total_amount, stickers_awarded, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.ShopperID, tx.StoreID,
		tx.TotalAmount.StringFixed(2),
		tx.StickersAwarded,
		tx.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return engine.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for _, item := range tx.Items {
		_, err := q.ExecContext(ctx, `
			INSERT INTO transaction_items (transaction_id, sku, name, quantity, unit_price, category)
			VALUES (?, ?, ?, ?, ?, ?)`,
			tx.ID, item.SKU, item.Name, item.Quantity,
			item.UnitPrice.StringFixed(2), item.Category,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction item: %w", err)
		}
	}
	return nil
}

func (s *Store) TransactionsByShopper(ctx context.Context, id engine.ShopperID) ([]engine.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionsByShopper(ctx, s.db, id)
}

func transactionsByShopper(ctx context.Context, q querier, id engine.ShopperID) ([]engine.Transaction, error) {
	txs, err := queryTransactions(ctx, q,
		selectTransactions+" WHERE shopper_id = ? ORDER BY created_at DESC, id DESC", id)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].Items, err = queryItems(ctx, q, txs[i].ID); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

const selectTransactions = `
	SELECT id, shopper_id, store_id, total_amount, stickers_awarded, created_at
	FROM transactions`

func queryTransactions(ctx context.Context, q querier, query string, args ...any) ([]engine.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []engine.Transaction
	for rows.Next() {
		var (
			tx          engine.Transaction
			totalAmount string
			createdAt   string
		)
		if err := rows.Scan(&tx.ID, &tx.ShopperID, &tx.StoreID,
			&totalAmount, &tx.StickersAwarded, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.TotalAmount = mustParseDecimal(totalAmount)
		tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func queryItems(ctx context.Context, q querier, txID engine.TransactionID) ([]engine.TransactionItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT sku, name, quantity, unit_price, category
		FROM transaction_items
		WHERE transaction_id = ?
		ORDER BY id ASC`, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []engine.TransactionItem
	for rows.Next() {
		var (
			item      engine.TransactionItem
			unitPrice string
		)
		if err := rows.Scan(&item.SKU, &item.Name, &item.Quantity, &unitPrice, &item.Category); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.UnitPrice = mustParseDecimal(unitPrice)
		items = append(items, item)
	}
	return items, rows.Err()
}

// =============================================================================
// LEDGER
// =============================================================================

func (s *Store) AppendEntry(ctx context.Context, entry engine.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, entry)
}

func appendEntry(ctx context.Context, q querier, entry engine.LedgerEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sticker_ledger (id, shopper_id, transaction_id, entry_type, delta, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ShopperID,
		nullString(string(entry.TransactionID)),
		entry.Type, entry.Delta,
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (s *Store) Entries(ctx context.Context, id engine.ShopperID) ([]engine.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledgerEntries(ctx, s.db, id)
}

func ledgerEntries(ctx context.Context, q querier, id engine.ShopperID) ([]engine.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, shopper_id, transaction_id, entry_type, delta, created_at
		FROM sticker_ledger
		WHERE shopper_id = ?
		ORDER BY created_at ASC, rowid ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []engine.LedgerEntry
	for rows.Next() {
		var (
			entry     engine.LedgerEntry
			txID      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.ShopperID, &txID, &entry.Type, &entry.Delta, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.TransactionID = engine.TransactionID(txID.String)
		entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) Balance(ctx context.Context, id engine.ShopperID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return balance(ctx, s.db, id)
}

func balance(ctx context.Context, q querier, id engine.ShopperID) (int64, error) {
	var total int64
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM sticker_ledger WHERE shopper_id = ?", id,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	return total, nil
}

// =============================================================================
// REPORTING
// =============================================================================

func (s *Store) Stats(ctx context.Context) (engine.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats(ctx, s.db)
}

func stats(ctx context.Context, q querier) (engine.Stats, error) {
	var result engine.Stats

	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM sticker_ledger WHERE entry_type = 'EARN'",
	).Scan(&result.TotalStickersAwarded)
	if err != nil {
		return result, fmt.Errorf("failed to sum earned stickers: %w", err)
	}

	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&result.TotalTransactions)
	if err != nil {
		return result, fmt.Errorf("failed to count transactions: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT store_id, COALESCE(SUM(stickers_awarded), 0) AS awarded
		FROM transactions
		GROUP BY store_id
		ORDER BY awarded DESC, store_id ASC`)
	if err != nil {
		return result, fmt.Errorf("failed to query per-store stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row engine.StoreStickers
		if err := rows.Scan(&row.StoreID, &row.StickersAwarded); err != nil {
			return result, fmt.Errorf("failed to scan per-store stats: %w", err)
		}
		result.StickersPerStore = append(result.StickersPerStore, row)
	}
	return result, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (engine.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The store-wide lock is
// held for the whole unit, so concurrent units never interleave; fn's
// reads go through the same *sql.Tx as its writes.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every call through the open *sql.Tx. No locking here:
// the parent holds the store lock for the duration of WithTx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetShopper(ctx context.Context, id engine.ShopperID) (*engine.Shopper, error) {
	return getShopper(ctx, ts.tx, id)
}

func (ts *txStore) EnsureShopper(ctx context.Context, id engine.ShopperID, createdAt time.Time) error {
	return ensureShopper(ctx, ts.tx, id, createdAt)
}

func (ts *txStore) GetTransaction(ctx context.Context, id engine.TransactionID) (*engine.Transaction, error) {
	return getTransaction(ctx, ts.tx, id)
}

func (ts *txStore) InsertTransaction(ctx context.Context, tx engine.Transaction) error {
	return insertTransaction(ctx, ts.tx, tx)
}

func (ts *txStore) TransactionsByShopper(ctx context.Context, id engine.ShopperID) ([]engine.Transaction, error) {
	return transactionsByShopper(ctx, ts.tx, id)
}

func (ts *txStore) AppendEntry(ctx context.Context, entry engine.LedgerEntry) error {
	return appendEntry(ctx, ts.tx, entry)
}

func (ts *txStore) Entries(ctx context.Context, id engine.ShopperID) ([]engine.LedgerEntry, error) {
	return ledgerEntries(ctx, ts.tx, id)
}

func (ts *txStore) Balance(ctx context.Context, id engine.ShopperID) (int64, error) {
	return balance(ctx, ts.tx, id)
}

func (ts *txStore) Stats(ctx context.Context) (engine.Stats, error) {
	return stats(ctx, ts.tx)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
