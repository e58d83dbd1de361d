package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valpay/ledger/internal/domain"
)

type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// FindTransaction returns the transaction with its full mutation history in
// receipt order. Returns (nil, nil) when the id is unknown.
func (r *TransactionRepo) FindTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT transaction_id, merchant_id, date, amount, transaction_type
		 FROM transactions WHERE transaction_id = ?`, transactionID)

	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "find transaction", Err: err}
	}

	history, err := r.loadMutations(ctx, r.db, transactionID)
	if err != nil {
		return nil, &domain.StoreError{Op: "load mutations", Err: err}
	}
	txn.MutationHistory = history
	return txn, nil
}

// SaveTransaction creates a new transaction row together with its mutation
// history, atomically. Fails if the id already exists.
func (r *TransactionRepo) SaveTransaction(ctx context.Context, txn *domain.Transaction) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin tx", Err: err}
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx,
		`INSERT INTO transactions (transaction_id, merchant_id, date, amount, transaction_type)
		 VALUES (?,?,?,?,?)`,
		txn.TransactionID, txn.MerchantID, formatTime(txn.Date),
		txn.Amount.String(), string(txn.TransactionType),
	); err != nil {
		return &domain.StoreError{Op: "insert transaction", Err: err}
	}

	for _, m := range txn.MutationHistory {
		if err := insertMutation(ctx, sqlTx, txn.TransactionID, m); err != nil {
			return &domain.StoreError{Op: "insert mutation", Err: err}
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// ApplyMutation atomically creates the transaction on first sight, or appends
// the mutation and adds the signed amount to the running total. The two
// writes share one SQL transaction so a crash can never leave the total and
// the history disagreeing.
func (r *TransactionRepo) ApplyMutation(ctx context.Context, n domain.TransactionNotification) (*domain.Transaction, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &domain.StoreError{Op: "begin tx", Err: err}
	}
	defer sqlTx.Rollback()

	mutation := domain.Mutation{
		Date:            n.Date,
		Amount:          n.Amount,
		TransactionType: n.TransactionType,
	}

	row := sqlTx.QueryRowContext(ctx,
		`SELECT transaction_id, merchant_id, date, amount, transaction_type
		 FROM transactions WHERE transaction_id = ?`, n.TransactionID)
	txn, err := scanTransaction(row)

	switch {
	case err == sql.ErrNoRows:
		txn = &domain.Transaction{
			TransactionID:   n.TransactionID,
			MerchantID:      n.MerchantID,
			Date:            n.Date,
			Amount:          n.Amount,
			TransactionType: n.TransactionType,
		}
		if _, err := sqlTx.ExecContext(ctx,
			`INSERT INTO transactions (transaction_id, merchant_id, date, amount, transaction_type)
			 VALUES (?,?,?,?,?)`,
			txn.TransactionID, txn.MerchantID, formatTime(txn.Date),
			txn.Amount.String(), string(txn.TransactionType),
		); err != nil {
			return nil, &domain.StoreError{Op: "insert transaction", Err: err}
		}
	case err != nil:
		return nil, &domain.StoreError{Op: "find transaction", Err: err}
	default:
		txn.Amount = txn.Amount.Add(n.Amount)
		if _, err := sqlTx.ExecContext(ctx,
			`UPDATE transactions SET amount = ? WHERE transaction_id = ?`,
			txn.Amount.String(), txn.TransactionID,
		); err != nil {
			return nil, &domain.StoreError{Op: "update amount", Err: err}
		}
	}

	if err := insertMutation(ctx, sqlTx, txn.TransactionID, mutation); err != nil {
		return nil, &domain.StoreError{Op: "insert mutation", Err: err}
	}

	history, err := r.loadMutations(ctx, sqlTx, txn.TransactionID)
	if err != nil {
		return nil, &domain.StoreError{Op: "load mutations", Err: err}
	}
	txn.MutationHistory = history

	if err := sqlTx.Commit(); err != nil {
		return nil, &domain.StoreError{Op: "commit", Err: err}
	}
	return txn, nil
}

// FindByMerchantAndDateRange returns every transaction for the merchant whose
// creation date falls in [startInclusive, endExclusive), with mutation
// histories attached.
func (r *TransactionRepo) FindByMerchantAndDateRange(ctx context.Context, merchantID string, startInclusive, endExclusive time.Time) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_id, merchant_id, date, amount, transaction_type
		 FROM transactions
		 WHERE merchant_id = ? AND date >= ? AND date < ?
		 ORDER BY date`,
		merchantID, formatTime(startInclusive), formatTime(endExclusive))
	if err != nil {
		return nil, &domain.StoreError{Op: "query transactions", Err: err}
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "scan transaction", Err: err}
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate transactions", Err: err}
	}

	for i := range txns {
		history, err := r.loadMutations(ctx, r.db, txns[i].TransactionID)
		if err != nil {
			return nil, &domain.StoreError{Op: "load mutations", Err: err}
		}
		txns[i].MutationHistory = history
	}
	return txns, nil
}

// --- helpers ---

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *TransactionRepo) loadMutations(ctx context.Context, q querier, transactionID string) ([]domain.Mutation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT date, amount, transaction_type
		 FROM transaction_mutations WHERE transaction_id = ? ORDER BY id`,
		transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.Mutation
	for rows.Next() {
		var dateStr, amountStr, typeStr string
		if err := rows.Scan(&dateStr, &amountStr, &typeStr); err != nil {
			return nil, err
		}
		m, err := buildMutation(dateStr, amountStr, typeStr)
		if err != nil {
			return nil, err
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

func insertMutation(ctx context.Context, sqlTx *sql.Tx, transactionID string, m domain.Mutation) error {
	_, err := sqlTx.ExecContext(ctx,
		`INSERT INTO transaction_mutations (transaction_id, date, amount, transaction_type)
		 VALUES (?,?,?,?)`,
		transactionID, formatTime(m.Date), m.Amount.String(), string(m.TransactionType))
	return err
}

func buildMutation(dateStr, amountStr, typeStr string) (domain.Mutation, error) {
	date, err := parseTime(dateStr)
	if err != nil {
		return domain.Mutation{}, fmt.Errorf("parse mutation date: %w", err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return domain.Mutation{}, fmt.Errorf("parse mutation amount: %w", err)
	}
	return domain.Mutation{
		Date:            date,
		Amount:          amount,
		TransactionType: domain.TransactionType(typeStr),
	}, nil
}

func scanTransaction(row scannable) (*domain.Transaction, error) {
	var txn domain.Transaction
	var dateStr, amountStr, typeStr string

	err := row.Scan(&txn.TransactionID, &txn.MerchantID, &dateStr, &amountStr, &typeStr)
	if err != nil {
		return nil, err
	}

	txn.Date, err = parseTime(dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse transaction date: %w", err)
	}
	txn.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse transaction amount: %w", err)
	}
	txn.TransactionType = domain.TransactionType(typeStr)
	return &txn, nil
}

// timeLayout is RFC3339 with fixed-width nanoseconds. Zero-padded fractions
// keep lexicographic order equal to chronological order for the SQL range
// comparisons, which RFC3339Nano's trimmed fractions would not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
