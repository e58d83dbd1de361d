package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeAuth    TransactionType = "AUTH"
	TypeRefund  TransactionType = "REFUND"
	TypeDispute TransactionType = "DISPUTE"
)

// TransactionTypes lists the known types in reconciliation check order.
var TransactionTypes = []TransactionType{TypeAuth, TypeRefund, TypeDispute}

// Mutation is one dated, typed, signed amount applied to a transaction.
// Immutable once recorded.
type Mutation struct {
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transactionType"`
}

// Transaction is the ledger entity for one processor transaction. Amount is
// the running total of every mutation applied so far; MutationHistory is
// append-only, in order of receipt. Transactions are never deleted.
//
// A mutation's type is not required to match the transaction's creation type.
// Reconciliation filters on both levels, so mismatched mutations are silently
// excluded from daily totals. Known sharp edge, kept as-is pending a product
// decision.
type Transaction struct {
	TransactionID   string          `json:"transactionId"`
	MerchantID      string          `json:"merchantId"`
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transactionType"`
	MutationHistory []Mutation      `json:"mutationHistory"`
}

// TransactionNotification is the inbound transaction event payload. Field
// names follow the processor's wire format. Refunds and disputes arrive with
// negative amounts; no sign inversion happens on our side.
type TransactionNotification struct {
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	MerchantID      string          `json:"merchantId"`
	TransactionID   string          `json:"transactionId"`
	TransactionType TransactionType `json:"transactionType"`
}
