package stock

import (
	"context"

	"github.com/farmstock/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to stock repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to stock repositories scoped
// to the current transaction. Row locks taken through these repositories
// (FindActiveByLotForUpdate) are held until the scope ends.
type TransactionalRepositories interface {
	// EntryRepo returns the stock entry repository scoped to the current transaction
	EntryRepo() stock.StockEntryRepository
	// TransactionRepo returns the ledger repository scoped to the current transaction
	TransactionRepo() stock.StockTransactionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	entryRepo stock.StockEntryRepository
	txRepo    stock.StockTransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	entryRepo stock.StockEntryRepository,
	txRepo stock.StockTransactionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		entryRepo: entryRepo,
		txRepo:    txRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// EntryRepo returns the stock entry repository.
func (s *NoOpTransactionScope) EntryRepo() stock.StockEntryRepository {
	return s.entryRepo
}

// TransactionRepo returns the ledger repository.
func (s *NoOpTransactionScope) TransactionRepo() stock.StockTransactionRepository {
	return s.txRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
