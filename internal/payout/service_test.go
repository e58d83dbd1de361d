package payout_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpay/ledger/internal/domain"
	"github.com/valpay/ledger/internal/payout"
	"github.com/valpay/ledger/internal/repository"
)

type testStore struct {
	*repository.TransactionRepo
	*repository.PayoutRepo
}

func newTestService(t *testing.T) (*payout.Service, *testStore) {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &testStore{
		TransactionRepo: repository.NewTransactionRepo(db),
		PayoutRepo:      repository.NewPayoutRepo(db),
	}
	return payout.NewService(store), store
}

func seedTransaction(t *testing.T, store *testStore, id string, amount int64) {
	t.Helper()
	_, err := store.ApplyMutation(context.Background(), domain.TransactionNotification{
		Date:            time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.NewFromInt(amount),
		MerchantID:      "merchant-1",
		TransactionID:   id,
		TransactionType: domain.TypeAuth,
	})
	require.NoError(t, err)
}

func payoutNotification(transactionID string, splits ...domain.SplitInput) domain.PayoutNotification {
	return domain.PayoutNotification{
		Date:          time.Date(2025, time.May, 13, 0, 0, 0, 0, time.UTC),
		TransactionID: transactionID,
		MerchantID:    "merchant-1",
		PayoutID:      "P1",
		Splits:        splits,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeSplits_ReferenceValues(t *testing.T) {
	// Transaction total 80, two input splits: variable fee = 80*0.02 = 1.6,
	// fixed fee = 0.2*2 = 0.4, residual = 80-60-1.6-0.4 = 18.
	svc, store := newTestService(t)
	seedTransaction(t, store, "T1", 80)

	splits, err := svc.ComputeSplits(context.Background(), payoutNotification("T1",
		domain.SplitInput{ID: "m1", Type: "merchant", Amount: dec("60")},
		domain.SplitInput{ID: "v1", Type: "variableFee", Amount: dec("0")},
	))
	require.NoError(t, err)
	require.Len(t, splits, 4)

	assert.Equal(t, "m1", splits[0].ID)
	assert.True(t, splits[0].Amount.Equal(dec("60")))
	assert.Equal(t, "v1", splits[1].ID)
	assert.True(t, splits[1].Amount.Equal(dec("18")), "residual = %s", splits[1].Amount)
	assert.Equal(t, domain.SplitIDFixedFee, splits[2].ID)
	assert.True(t, splits[2].Amount.Equal(dec("0.4")), "fixed fee = %s", splits[2].Amount)
	assert.Equal(t, domain.SplitIDVariableFee, splits[3].ID)
	assert.True(t, splits[3].Amount.Equal(dec("1.6")), "variable fee = %s", splits[3].Amount)
}

func TestComputeSplits_Conservation(t *testing.T) {
	// merchant + residual + fixedFee + variableFee must equal the transaction
	// total exactly, whatever the inputs.
	cases := []struct {
		name     string
		total    int64
		merchant string
		extra    int // extra non-merchant splits beyond the first
	}{
		{"reference", 80, "60", 0},
		{"zero total", 0, "0", 0},
		{"merchant exceeds total", 50, "90", 0},
		{"many splits", 1000, "750.25", 3},
		{"negative total", -40, "10", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService(t)
			seedTransaction(t, store, "T1", tc.total)

			inputs := []domain.SplitInput{
				{ID: "m1", Type: "merchant", Amount: dec(tc.merchant)},
				{ID: "v1", Type: "valpay", Amount: dec("0")},
			}
			for i := 0; i < tc.extra; i++ {
				inputs = append(inputs, domain.SplitInput{ID: "x", Type: "other", Amount: dec("1")})
			}

			splits, err := svc.ComputeSplits(context.Background(), payoutNotification("T1", inputs...))
			require.NoError(t, err)

			sum := decimal.Zero
			for _, s := range splits {
				sum = sum.Add(s.Amount)
			}
			assert.True(t, sum.Equal(decimal.NewFromInt(tc.total)),
				"splits sum to %s, want %d", sum, tc.total)
		})
	}
}

func TestFeeDetails(t *testing.T) {
	fixed := payout.FeeDetails("fixedFee")
	assert.Equal(t, domain.FeeFixed, fixed.FeeType)
	assert.True(t, fixed.FeeAmount.Equal(dec("0.2")))

	variable := payout.FeeDetails("variableFee")
	assert.Equal(t, domain.FeePercentage, variable.FeeType)
	assert.True(t, variable.FeeAmount.Equal(dec("0.02")))

	other := payout.FeeDetails("m1")
	assert.Equal(t, domain.FeeNone, other.FeeType)
	assert.True(t, other.FeeAmount.IsZero())
}

func TestProcess_PersistsPayout(t *testing.T) {
	svc, store := newTestService(t)
	seedTransaction(t, store, "T1", 80)

	p, err := svc.Process(context.Background(), payoutNotification("T1",
		domain.SplitInput{ID: "m1", Type: "merchant", Amount: dec("60")},
		domain.SplitInput{ID: "v1", Type: "variableFee", Amount: dec("0")},
	))
	require.NoError(t, err)

	stored, err := store.GetPayout(context.Background(), p.PayoutID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Splits, 4)
	assert.Equal(t, "T1", stored.TransactionID)
	assert.True(t, stored.Splits[1].Amount.Equal(dec("18")))
	assert.Equal(t, domain.FeeFixed, stored.Splits[2].Fee.FeeType)

	// The referenced transaction is read, never written.
	txn, err := store.FindTransaction(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(dec("80")))
	assert.Len(t, txn.MutationHistory, 1)
}

func TestProcess_UnknownTransaction(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Process(context.Background(), payoutNotification("missing",
		domain.SplitInput{ID: "m1", Type: "merchant", Amount: dec("60")},
		domain.SplitInput{ID: "v1", Type: "variableFee", Amount: dec("0")},
	))
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	p, err := store.GetPayout(context.Background(), "P1")
	require.NoError(t, err)
	assert.Nil(t, p, "no payout may be written on failure")
}

func TestProcess_MissingMerchantSplit(t *testing.T) {
	svc, store := newTestService(t)
	seedTransaction(t, store, "T1", 80)

	_, err := svc.Process(context.Background(), payoutNotification("T1",
		domain.SplitInput{ID: "v1", Type: "variableFee", Amount: dec("0")},
	))

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	p, err := store.GetPayout(context.Background(), "P1")
	require.NoError(t, err)
	assert.Nil(t, p, "no payout may be written on failure")
}

func TestProcess_MissingResidualSplit(t *testing.T) {
	svc, store := newTestService(t)
	seedTransaction(t, store, "T1", 80)

	_, err := svc.Process(context.Background(), payoutNotification("T1",
		domain.SplitInput{ID: "m1", Type: "merchant", Amount: dec("60")},
	))

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
