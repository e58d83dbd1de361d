package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/valpay/ledger/internal/domain"
)

type PayoutRepo struct {
	db *sql.DB
}

func NewPayoutRepo(db *sql.DB) *PayoutRepo {
	return &PayoutRepo{db: db}
}

// SavePayout persists the payout and its four splits atomically. Splits keep
// their computed order via the position column.
func (r *PayoutRepo) SavePayout(ctx context.Context, p *domain.Payout) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin tx", Err: err}
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx,
		`INSERT INTO payouts (payout_id, date, merchant_id, transaction_id)
		 VALUES (?,?,?,?)`,
		p.PayoutID, formatTime(p.Date), p.MerchantID, p.TransactionID,
	); err != nil {
		return &domain.StoreError{Op: "insert payout", Err: err}
	}

	stmt, err := sqlTx.PrepareContext(ctx,
		`INSERT INTO payout_splits (payout_id, position, split_id, amount, fee_type, fee_amount)
		 VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return &domain.StoreError{Op: "prepare splits", Err: err}
	}
	defer stmt.Close()

	for i, s := range p.Splits {
		if _, err := stmt.ExecContext(ctx,
			p.PayoutID, i, s.ID, s.Amount.String(),
			string(s.Fee.FeeType), s.Fee.FeeAmount.String(),
		); err != nil {
			return &domain.StoreError{Op: fmt.Sprintf("insert split %d", i), Err: err}
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// GetPayout returns the payout with its splits in computed order, or
// (nil, nil) when the id is unknown.
func (r *PayoutRepo) GetPayout(ctx context.Context, payoutID string) (*domain.Payout, error) {
	var p domain.Payout
	var dateStr string

	err := r.db.QueryRowContext(ctx,
		`SELECT payout_id, date, merchant_id, transaction_id
		 FROM payouts WHERE payout_id = ?`, payoutID,
	).Scan(&p.PayoutID, &dateStr, &p.MerchantID, &p.TransactionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "find payout", Err: err}
	}

	p.Date, err = parseTime(dateStr)
	if err != nil {
		return nil, &domain.StoreError{Op: "parse payout date", Err: err}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT split_id, amount, fee_type, fee_amount
		 FROM payout_splits WHERE payout_id = ? ORDER BY position`, payoutID)
	if err != nil {
		return nil, &domain.StoreError{Op: "query splits", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.PayoutSplit
		var amountStr, feeTypeStr, feeAmountStr string
		if err := rows.Scan(&s.ID, &amountStr, &feeTypeStr, &feeAmountStr); err != nil {
			return nil, &domain.StoreError{Op: "scan split", Err: err}
		}
		if s.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, &domain.StoreError{Op: "parse split amount", Err: err}
		}
		feeAmount, err := decimal.NewFromString(feeAmountStr)
		if err != nil {
			return nil, &domain.StoreError{Op: "parse fee amount", Err: err}
		}
		s.Fee = domain.Fee{
			FeeType:   domain.FeeType(feeTypeStr),
			FeeAmount: feeAmount,
			ID:        s.ID,
		}
		p.Splits = append(p.Splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate splits", Err: err}
	}
	return &p, nil
}
