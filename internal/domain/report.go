package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionTotals holds the expected per-type aggregate amounts for one
// merchant-day.
type TransactionTotals struct {
	Auth    decimal.Decimal `json:"auth"`
	Refund  decimal.Decimal `json:"refund"`
	Dispute decimal.Decimal `json:"dispute"`
}

// ByType returns the total for the given transaction type.
func (t TransactionTotals) ByType(tt TransactionType) decimal.Decimal {
	switch tt {
	case TypeAuth:
		return t.Auth
	case TypeRefund:
		return t.Refund
	case TypeDispute:
		return t.Dispute
	}
	return decimal.Zero
}

// Report is an accepted end-of-day report. One exists per merchant-day, and
// only after its totals reconciled against the ledger.
type Report struct {
	ID                string            `json:"id"`
	Date              time.Time         `json:"date"`
	MerchantID        string            `json:"merchantId"`
	TransactionTotals TransactionTotals `json:"transactionTotals"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// EndOfDayReport is the inbound report payload submitted for reconciliation.
type EndOfDayReport struct {
	Date              time.Time         `json:"date"`
	MerchantID        string            `json:"merchantId"`
	TransactionTotals TransactionTotals `json:"transactionTotals"`
}
