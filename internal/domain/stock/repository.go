package stock

import (
	"context"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockEntryRepository defines the interface for stock entry persistence
type StockEntryRepository interface {
	// FindByID finds a stock entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockEntry, error)

	// FindActiveByLot finds all active entries of a lot, oldest first
	FindActiveByLot(ctx context.Context, lot Lot) ([]StockEntry, error)

	// FindActiveByLotForUpdate finds all active entries of a lot with row
	// locks held until the surrounding transaction ends. Only valid inside
	// a transaction scope.
	FindActiveByLotForUpdate(ctx context.Context, lot Lot) ([]StockEntry, error)

	// FindByLot finds all entries of a lot, active or not
	FindByLot(ctx context.Context, lot Lot, filter shared.Filter) ([]StockEntry, error)

	// FindByCategory finds entries in a category
	FindByCategory(ctx context.Context, category ConsumableCategory, filter shared.Filter) ([]StockEntry, error)

	// ListLots returns the distinct lots that have at least one entry in
	// the given category
	ListLots(ctx context.Context, category ConsumableCategory) ([]Lot, error)

	// Save creates or updates a stock entry
	Save(ctx context.Context, entry *StockEntry) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, entry *StockEntry) error

	// CountByLot counts entries of a lot
	CountByLot(ctx context.Context, lot Lot) (int64, error)
}

// StockTransactionRepository defines the interface for ledger persistence.
// Transactions are append-only: there are no update or delete operations.
type StockTransactionRepository interface {
	// Create appends a single transaction to the ledger
	Create(ctx context.Context, tx *StockTransaction) error

	// CreateBatch appends multiple transactions in one statement
	CreateBatch(ctx context.Context, txs []*StockTransaction) error

	// FindByID finds a transaction by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransaction, error)

	// FindByEntry returns an entry's transactions in chronological order
	FindByEntry(ctx context.Context, entryID uuid.UUID) ([]StockTransaction, error)

	// FindRecentByEntry returns an entry's transactions newest first
	FindRecentByEntry(ctx context.Context, entryID uuid.UUID, limit int) ([]StockTransaction, error)

	// FindLatestByEntry returns the most recent transaction for an entry,
	// or shared.ErrNotFound if the ledger is empty
	FindLatestByEntry(ctx context.Context, entryID uuid.UUID) (*StockTransaction, error)

	// HasTransactions reports whether an entry has any ledger rows
	HasTransactions(ctx context.Context, entryID uuid.UUID) (bool, error)

	// CountByEntry counts an entry's ledger rows
	CountByEntry(ctx context.Context, entryID uuid.UUID) (int64, error)

	// FindByReference returns all transactions caused by a business object
	FindByReference(ctx context.Context, refType, refID string) ([]StockTransaction, error)
}
