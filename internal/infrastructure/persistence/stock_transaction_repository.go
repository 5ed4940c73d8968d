package persistence

import (
	"context"
	"errors"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockTransactionRepository implements StockTransactionRepository
// using GORM. The ledger is append-only: this repository exposes no
// update or delete operations.
type GormStockTransactionRepository struct {
	db *gorm.DB
}

// NewGormStockTransactionRepository creates a new GormStockTransactionRepository
func NewGormStockTransactionRepository(db *gorm.DB) *GormStockTransactionRepository {
	return &GormStockTransactionRepository{db: db}
}

// Create appends a single transaction to the ledger
func (r *GormStockTransactionRepository) Create(ctx context.Context, tx *stock.StockTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// CreateBatch appends multiple transactions in one statement
func (r *GormStockTransactionRepository) CreateBatch(ctx context.Context, txs []*stock.StockTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(txs).Error
}

// FindByID finds a transaction by its ID
func (r *GormStockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockTransaction, error) {
	var tx stock.StockTransaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByEntry returns an entry's transactions in chronological order
func (r *GormStockTransactionRepository) FindByEntry(ctx context.Context, entryID uuid.UUID) ([]stock.StockTransaction, error) {
	var txs []stock.StockTransaction
	if err := r.db.WithContext(ctx).
		Where("stock_entry_id = ?", entryID).
		Order("created_at ASC, id ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindRecentByEntry returns an entry's transactions newest first
func (r *GormStockTransactionRepository) FindRecentByEntry(ctx context.Context, entryID uuid.UUID, limit int) ([]stock.StockTransaction, error) {
	var txs []stock.StockTransaction
	query := r.db.WithContext(ctx).
		Where("stock_entry_id = ?", entryID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindLatestByEntry returns the most recent transaction for an entry
func (r *GormStockTransactionRepository) FindLatestByEntry(ctx context.Context, entryID uuid.UUID) (*stock.StockTransaction, error) {
	var tx stock.StockTransaction
	if err := r.db.WithContext(ctx).
		Where("stock_entry_id = ?", entryID).
		Order("created_at DESC, id DESC").
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// HasTransactions reports whether an entry has any ledger rows
func (r *GormStockTransactionRepository) HasTransactions(ctx context.Context, entryID uuid.UUID) (bool, error) {
	count, err := r.CountByEntry(ctx, entryID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByEntry counts an entry's ledger rows
func (r *GormStockTransactionRepository) CountByEntry(ctx context.Context, entryID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&stock.StockTransaction{}).
		Where("stock_entry_id = ?", entryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByReference returns all transactions caused by a business object
func (r *GormStockTransactionRepository) FindByReference(ctx context.Context, refType, refID string) ([]stock.StockTransaction, error) {
	var txs []stock.StockTransaction
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at ASC, id ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Ensure GormStockTransactionRepository implements StockTransactionRepository
var _ stock.StockTransactionRepository = (*GormStockTransactionRepository)(nil)
