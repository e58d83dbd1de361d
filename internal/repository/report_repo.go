package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valpay/ledger/internal/domain"
)

type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// SaveReport persists an accepted end-of-day report. The merchant+date unique
// constraint rejects a second report for the same merchant-day.
func (r *ReportRepo) SaveReport(ctx context.Context, rpt *domain.Report) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (id, merchant_id, date, auth_total, refund_total, dispute_total, created_at)
		 VALUES (?,?,?,?,?,?,?)`,
		rpt.ID, rpt.MerchantID, formatTime(rpt.Date),
		rpt.TransactionTotals.Auth.String(),
		rpt.TransactionTotals.Refund.String(),
		rpt.TransactionTotals.Dispute.String(),
		formatTime(rpt.CreatedAt),
	)
	if err != nil {
		return &domain.StoreError{Op: "insert report", Err: err}
	}
	return nil
}

// GetByMerchantAndDate returns the accepted report for the merchant-day, or
// (nil, nil) when none exists.
func (r *ReportRepo) GetByMerchantAndDate(ctx context.Context, merchantID string, date time.Time) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, merchant_id, date, auth_total, refund_total, dispute_total, created_at
		 FROM reports WHERE merchant_id = ? AND date = ?`,
		merchantID, formatTime(date))

	rpt, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "find report", Err: err}
	}
	return rpt, nil
}

// ListByMerchant returns all accepted reports for a merchant, oldest first.
func (r *ReportRepo) ListByMerchant(ctx context.Context, merchantID string) ([]domain.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, merchant_id, date, auth_total, refund_total, dispute_total, created_at
		 FROM reports WHERE merchant_id = ? ORDER BY date`, merchantID)
	if err != nil {
		return nil, &domain.StoreError{Op: "query reports", Err: err}
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		rpt, err := scanReport(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "scan report", Err: err}
		}
		reports = append(reports, *rpt)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate reports", Err: err}
	}
	return reports, nil
}

func scanReport(row scannable) (*domain.Report, error) {
	var rpt domain.Report
	var dateStr, authStr, refundStr, disputeStr, createdStr string

	err := row.Scan(&rpt.ID, &rpt.MerchantID, &dateStr, &authStr, &refundStr, &disputeStr, &createdStr)
	if err != nil {
		return nil, err
	}

	if rpt.Date, err = parseTime(dateStr); err != nil {
		return nil, err
	}
	if rpt.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if rpt.TransactionTotals.Auth, err = decimal.NewFromString(authStr); err != nil {
		return nil, err
	}
	if rpt.TransactionTotals.Refund, err = decimal.NewFromString(refundStr); err != nil {
		return nil, err
	}
	if rpt.TransactionTotals.Dispute, err = decimal.NewFromString(disputeStr); err != nil {
		return nil, err
	}
	return &rpt, nil
}
