package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// An in-memory database exists per connection; pin the pool to one so
	// every statement sees the same database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	// Monetary amounts are stored as decimal strings, never floats, so the
	// running total round-trips exactly. Timestamps are fixed-width RFC3339
	// nanoseconds in UTC so lexicographic range comparisons stay correct.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			date TEXT NOT NULL,
			amount TEXT NOT NULL,
			transaction_type TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_merchant_date ON transactions(merchant_id, date)`,

		`CREATE TABLE IF NOT EXISTS transaction_mutations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_id TEXT NOT NULL,
			date TEXT NOT NULL,
			amount TEXT NOT NULL,
			transaction_type TEXT NOT NULL,
			FOREIGN KEY (transaction_id) REFERENCES transactions(transaction_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_transaction ON transaction_mutations(transaction_id)`,

		`CREATE TABLE IF NOT EXISTS payouts (
			payout_id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			transaction_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payouts_merchant ON payouts(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payouts_transaction ON payouts(transaction_id)`,

		`CREATE TABLE IF NOT EXISTS payout_splits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			payout_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			split_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			fee_type TEXT NOT NULL,
			fee_amount TEXT NOT NULL,
			FOREIGN KEY (payout_id) REFERENCES payouts(payout_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payout_splits_payout ON payout_splits(payout_id)`,

		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			date TEXT NOT NULL,
			auth_total TEXT NOT NULL,
			refund_total TEXT NOT NULL,
			dispute_total TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (merchant_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_merchant ON reports(merchant_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
