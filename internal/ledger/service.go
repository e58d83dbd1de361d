package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/valpay/ledger/internal/domain"
	"github.com/valpay/ledger/internal/metrics"
)

// Store is the slice of the ledger store adapter this engine needs.
type Store interface {
	// FindTransaction returns (nil, nil) when the id is unknown.
	FindTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ApplyMutation atomically creates the transaction or appends the
	// mutation and adds its signed amount to the running total.
	ApplyMutation(ctx context.Context, n domain.TransactionNotification) (*domain.Transaction, error)
}

// Service applies transaction notifications to the ledger.
//
// Mutation application is serialized per transactionId with a keyed mutex, on
// top of the store's single-SQL-transaction write, so two concurrent
// notifications for the same transaction can never both read the pre-update
// total. Notifications for distinct transactions proceed in parallel.
type Service struct {
	store   Store
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// DefaultStoreTimeout bounds a single store lookup/apply, mirroring the
// bounded transaction lookup of the upstream notification feed.
const DefaultStoreTimeout = 30 * time.Second

func NewService(store Store, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Service{
		store:   store,
		timeout: timeout,
		locks:   make(map[string]*sync.Mutex),
	}
}

// ApplyNotification records one transaction event: first sight of an id
// creates the transaction with a single-entry history; any later event
// appends a mutation and adds the signed amount to the running total.
//
// The amount's sign and the mutation's type are taken as delivered — refunds
// and disputes arrive negative, and a mutation's type may differ from the
// transaction's creation type.
func (s *Service) ApplyNotification(ctx context.Context, n domain.TransactionNotification) (*domain.Transaction, error) {
	lock := s.keyLock(n.TransactionID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	txn, err := s.store.ApplyMutation(ctx, n)
	if err != nil {
		return nil, err
	}

	metrics.MutationsApplied.WithLabelValues(string(n.TransactionType)).Inc()
	log.Printf("[ledger] Applied %s mutation %s to %s (amount=%s, history=%d)",
		n.TransactionType, n.Amount, n.TransactionID, txn.Amount, len(txn.MutationHistory))
	return txn, nil
}

// GetTransaction returns the transaction with its mutation history, or
// ErrTransactionNotFound.
func (s *Service) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	txn, err := s.store.FindTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return txn, nil
}

// keyLock returns the mutex for a transaction id, creating it on first use.
// Entries are never evicted; the table is bounded by the number of distinct
// transaction ids seen by this process.
func (s *Service) keyLock(transactionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[transactionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[transactionID] = lock
	}
	return lock
}
