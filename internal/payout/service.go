package payout

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"github.com/valpay/ledger/internal/domain"
	"github.com/valpay/ledger/internal/metrics"
)

// Fee policy constants. FixedFeeRate is charged per entry in the
// notification's splits list, not as a flat fee; that per-split-count scaling
// matches the processor contract as implemented today.
var (
	FixedFeeRate    = decimal.RequireFromString("0.2")
	VariableFeeRate = decimal.RequireFromString("0.02")
)

// Store is the slice of the ledger store adapter this calculator needs.
type Store interface {
	FindTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)
	SavePayout(ctx context.Context, p *domain.Payout) error
}

// Service computes merchant/fee splits for payout notifications and persists
// the resulting payout records. The referenced transaction is read, never
// written.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Process computes the splits for the notification and persists the payout.
// Both failure modes (unknown transaction, malformed splits list) abort
// before any write.
func (s *Service) Process(ctx context.Context, n domain.PayoutNotification) (*domain.Payout, error) {
	splits, err := s.ComputeSplits(ctx, n)
	if err != nil {
		return nil, err
	}

	p := &domain.Payout{
		PayoutID:      n.PayoutID,
		Date:          n.Date,
		MerchantID:    n.MerchantID,
		TransactionID: n.TransactionID,
		Splits:        splits,
	}
	if err := s.store.SavePayout(ctx, p); err != nil {
		return nil, err
	}

	metrics.PayoutsCreated.Inc()
	log.Printf("[payout] Created payout %s for transaction %s (%d splits)",
		p.PayoutID, p.TransactionID, len(p.Splits))
	return p, nil
}

// ComputeSplits derives the four payout splits from the referenced
// transaction's current running total:
//
//	merchant   — the merchant split's stated amount, trusted from the input
//	residual   — total − merchant − variableFee − fixedFee (balancing entry,
//	             assigned to the first non-merchant split's id; may go negative)
//	fixedFee   — FixedFeeRate × number of input splits
//	variableFee — total × VariableFeeRate
//
// The four amounts always sum exactly to the transaction total.
func (s *Service) ComputeSplits(ctx context.Context, n domain.PayoutNotification) ([]domain.PayoutSplit, error) {
	txn, err := s.store.FindTransaction(ctx, n.TransactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrTransactionNotFound
	}

	var merchantSplit, residualSplit *domain.SplitInput
	for i := range n.Splits {
		in := &n.Splits[i]
		if in.Type == domain.SplitTypeMerchant {
			if merchantSplit == nil {
				merchantSplit = in
			}
		} else if residualSplit == nil {
			residualSplit = in
		}
	}
	if merchantSplit == nil {
		return nil, &domain.ValidationError{Reason: "merchant split not found"}
	}
	if residualSplit == nil {
		return nil, &domain.ValidationError{Reason: "residual split not found"}
	}

	totalAmount := txn.Amount
	merchantAmount := merchantSplit.Amount
	variableFeeAmount := totalAmount.Mul(VariableFeeRate)
	fixedFeeAmount := FixedFeeRate.Mul(decimal.NewFromInt(int64(len(n.Splits))))
	residualAmount := totalAmount.Sub(merchantAmount).Sub(variableFeeAmount).Sub(fixedFeeAmount)

	return []domain.PayoutSplit{
		{ID: merchantSplit.ID, Amount: merchantAmount, Fee: FeeDetails(merchantSplit.ID)},
		{ID: residualSplit.ID, Amount: residualAmount, Fee: FeeDetails(residualSplit.ID)},
		{ID: domain.SplitIDFixedFee, Amount: fixedFeeAmount, Fee: FeeDetails(domain.SplitIDFixedFee)},
		{ID: domain.SplitIDVariableFee, Amount: variableFeeAmount, Fee: FeeDetails(domain.SplitIDVariableFee)},
	}, nil
}

// FeeDetails classifies a split id: the two reserved fee identifiers carry
// their policy rate, every other id is a plain non-fee split.
func FeeDetails(splitID string) domain.Fee {
	switch splitID {
	case domain.SplitIDFixedFee:
		return domain.Fee{FeeType: domain.FeeFixed, FeeAmount: FixedFeeRate, ID: splitID}
	case domain.SplitIDVariableFee:
		return domain.Fee{FeeType: domain.FeePercentage, FeeAmount: VariableFeeRate, ID: splitID}
	default:
		return domain.Fee{FeeType: domain.FeeNone, FeeAmount: decimal.Zero, ID: splitID}
	}
}
