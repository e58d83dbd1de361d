package reconciliation

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valpay/ledger/internal/domain"
	"github.com/valpay/ledger/internal/metrics"
)

// Store is the slice of the ledger store adapter this engine needs.
type Store interface {
	FindByMerchantAndDateRange(ctx context.Context, merchantID string, startInclusive, endExclusive time.Time) ([]domain.Transaction, error)
	SaveReport(ctx context.Context, rpt *domain.Report) error
}

// Service verifies end-of-day reports against ledger-derived daily totals.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Reconcile recomputes the merchant's per-type totals for the report's day
// from mutation history and compares them to the reported totals, in order
// AUTH, REFUND, DISPUTE. The first disagreement fails with a MismatchError
// and nothing is persisted; full agreement persists and returns the Report.
//
// Transactions are selected by calendar day [date@00:00, date+1d@00:00), but
// a mutation only counts toward a total when its timestamp equals the
// report's date exactly. That asymmetry is a precondition of the feed —
// mutations carry the literal report timestamp — and is deliberately not
// normalized here.
func (s *Service) Reconcile(ctx context.Context, report domain.EndOfDayReport) (*domain.Report, error) {
	dayStart, dayEnd := calendarDay(report.Date)
	txns, err := s.store.FindByMerchantAndDateRange(ctx, report.MerchantID, dayStart, dayEnd)
	if err != nil {
		metrics.ReconciliationRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	for _, tt := range domain.TransactionTypes {
		actual := totalForType(txns, tt, report.Date)
		expected := report.TransactionTotals.ByType(tt)
		if !actual.Equal(expected) {
			metrics.ReconciliationRuns.WithLabelValues("mismatch").Inc()
			metrics.ReconciliationMismatches.WithLabelValues(string(tt)).Inc()
			return nil, &domain.MismatchError{Type: tt, Expected: expected, Actual: actual}
		}
	}

	rpt := &domain.Report{
		ID:                uuid.NewString(),
		Date:              report.Date,
		MerchantID:        report.MerchantID,
		TransactionTotals: report.TransactionTotals,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.SaveReport(ctx, rpt); err != nil {
		metrics.ReconciliationRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ReconciliationRuns.WithLabelValues("accepted").Inc()
	log.Printf("[reconciliation] Accepted report for merchant %s on %s (auth=%s refund=%s dispute=%s)",
		rpt.MerchantID, rpt.Date.Format("2006-01-02"),
		rpt.TransactionTotals.Auth, rpt.TransactionTotals.Refund, rpt.TransactionTotals.Dispute)
	return rpt, nil
}

// totalForType sums mutation amounts for one transaction type. A transaction
// participates only when its own type matches, and within it only mutations
// of that same type carrying exactly the report timestamp are counted.
// Mutations whose type differs from their transaction's type therefore never
// reach any total.
func totalForType(txns []domain.Transaction, tt domain.TransactionType, reportDate time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range txns {
		if txn.TransactionType != tt {
			continue
		}
		for _, m := range txn.MutationHistory {
			if m.TransactionType == tt && m.Date.Equal(reportDate) {
				total = total.Add(m.Amount)
			}
		}
	}
	return total
}

// calendarDay returns the half-open day window [00:00, next day 00:00)
// containing t, in t's location.
func calendarDay(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
