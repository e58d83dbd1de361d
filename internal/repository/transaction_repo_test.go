package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpay/ledger/internal/domain"
	"github.com/valpay/ledger/internal/repository"
)

func newTestRepo(t *testing.T) *repository.TransactionRepo {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewTransactionRepo(db)
}

func note(id, merchant string, amount string, tt domain.TransactionType, date time.Time) domain.TransactionNotification {
	return domain.TransactionNotification{
		Date:            date,
		Amount:          decimal.RequireFromString(amount),
		MerchantID:      merchant,
		TransactionID:   id,
		TransactionType: tt,
	}
}

func TestApplyMutation_CreateAndAppend(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, time.May, 12, 10, 15, 0, 0, time.UTC)

	txn, err := repo.ApplyMutation(ctx, note("T1", "m1", "100", domain.TypeAuth, date))
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("100")))
	require.Len(t, txn.MutationHistory, 1)

	txn, err = repo.ApplyMutation(ctx, note("T1", "m1", "-20.50", domain.TypeRefund, date))
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("79.5")), "amount = %s", txn.Amount)
	require.Len(t, txn.MutationHistory, 2)
	assert.True(t, txn.MutationHistory[1].Amount.Equal(decimal.RequireFromString("-20.5")))
}

func TestFindTransaction_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, time.May, 12, 10, 15, 30, 123456789, time.UTC)

	_, err := repo.ApplyMutation(ctx, note("T1", "m1", "0.01", domain.TypeAuth, date))
	require.NoError(t, err)

	txn, err := repo.FindTransaction(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, txn)

	// Decimal and sub-second timestamp precision survive storage.
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, txn.Date.Equal(date), "date = %s", txn.Date)
	require.Len(t, txn.MutationHistory, 1)
	assert.True(t, txn.MutationHistory[0].Date.Equal(date))
}

func TestFindTransaction_Absent(t *testing.T) {
	repo := newTestRepo(t)

	txn, err := repo.FindTransaction(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, txn)
}

func TestFindByMerchantAndDateRange_HalfOpen(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	apply := func(id string, date time.Time, merchant string) {
		_, err := repo.ApplyMutation(ctx, note(id, merchant, "10", domain.TypeAuth, date))
		require.NoError(t, err)
	}

	apply("at-start", start, "m1")
	apply("mid-day", start.Add(13*time.Hour), "m1")
	apply("at-end", end, "m1")                     // excluded: end is exclusive
	apply("day-before", start.Add(-time.Second), "m1") // excluded
	apply("other-merchant", start, "m2")           // excluded

	txns, err := repo.FindByMerchantAndDateRange(ctx, "m1", start, end)
	require.NoError(t, err)

	var ids []string
	for _, txn := range txns {
		ids = append(ids, txn.TransactionID)
		assert.NotEmpty(t, txn.MutationHistory, "history is attached for %s", txn.TransactionID)
	}
	assert.ElementsMatch(t, []string{"at-start", "mid-day"}, ids)
}

func TestSaveTransaction_DuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC)

	txn := &domain.Transaction{
		TransactionID:   "T1",
		MerchantID:      "m1",
		Date:            date,
		Amount:          decimal.NewFromInt(100),
		TransactionType: domain.TypeAuth,
		MutationHistory: []domain.Mutation{
			{Date: date, Amount: decimal.NewFromInt(100), TransactionType: domain.TypeAuth},
		},
	}
	require.NoError(t, repo.SaveTransaction(ctx, txn))

	err := repo.SaveTransaction(ctx, txn)
	require.Error(t, err)
	assert.True(t, domain.IsStoreError(err))
}
