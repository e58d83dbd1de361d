package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors, for use with errors.Is.
var (
	// ErrTransactionNotFound is returned when a payout references a
	// transaction the ledger has never seen.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrMismatch is the base error for reconciliation failures.
	ErrMismatch = errors.New("reconciliation mismatch")
)

// ValidationError reports malformed notification input, such as a payout
// splits list without a merchant entry. Raised before any store write.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// MismatchError reports a reconciliation failure for one transaction type,
// carrying the reported and the ledger-derived totals.
type MismatchError struct {
	Type     TransactionType
	Expected decimal.Decimal // total stated by the report
	Actual   decimal.Decimal // total recomputed from the ledger
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s total does not match: expected %s, but found %s",
		e.Type, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }

// StoreError wraps a store-adapter failure (connectivity, timeout, constraint)
// so callers can tell infrastructure faults apart from business failures.
// The core never retries these; retry policy belongs to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err originated in the store adapter.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
