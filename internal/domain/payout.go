package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type FeeType string

const (
	FeeNone       FeeType = "none"
	FeeFixed      FeeType = "fixed"
	FeePercentage FeeType = "percentage"
)

// Reserved split identifiers for the two fee entries of a payout.
const (
	SplitIDFixedFee    = "fixedFee"
	SplitIDVariableFee = "variableFee"
)

// Fee annotates a payout split with its fee classification.
type Fee struct {
	FeeType   FeeType         `json:"feeType"`
	FeeAmount decimal.Decimal `json:"feeAmount"`
	ID        string          `json:"id"`
}

// PayoutSplit is one attributed portion of a payout's total amount. ID is a
// merchant split id, or one of the reserved fee identifiers.
type PayoutSplit struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Fee    Fee             `json:"fee"`
}

// Payout records the computed splits for one payout notification. It
// references a Transaction without owning it and is never mutated after
// creation. Splits is always exactly four entries, in order: merchant,
// residual, fixedFee, variableFee.
type Payout struct {
	PayoutID      string        `json:"payoutId"`
	Date          time.Time     `json:"date"`
	MerchantID    string        `json:"merchantId"`
	TransactionID string        `json:"transactionId"`
	Splits        []PayoutSplit `json:"splits"`
}

// SplitInput is one entry of a payout notification's splits list.
type SplitInput struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// SplitTypeMerchant marks the single trusted merchant entry in a payout
// notification's splits list.
const SplitTypeMerchant = "merchant"

// PayoutNotification is the inbound payout event payload.
type PayoutNotification struct {
	Date          time.Time    `json:"date"`
	TransactionID string       `json:"transactionId"`
	MerchantID    string       `json:"merchantId"`
	PayoutID      string       `json:"payoutId"`
	Splits        []SplitInput `json:"splits"`
}
