package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockEntryRepository implements StockEntryRepository using GORM
type GormStockEntryRepository struct {
	db *gorm.DB
}

// NewGormStockEntryRepository creates a new GormStockEntryRepository
func NewGormStockEntryRepository(db *gorm.DB) *GormStockEntryRepository {
	return &GormStockEntryRepository{db: db}
}

// FindByID finds a stock entry by its ID
func (r *GormStockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockEntry, error) {
	var entry stock.StockEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindActiveByLot finds all active entries of a lot in FIFO order
func (r *GormStockEntryRepository) FindActiveByLot(ctx context.Context, lot stock.Lot) ([]stock.StockEntry, error) {
	var entries []stock.StockEntry
	if err := r.db.WithContext(ctx).
		Where("category = ? AND lot_code = ? AND is_active = ?", lot.Category, lot.Code, true).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindActiveByLotForUpdate finds all active entries of a lot with
// SELECT ... FOR UPDATE row locks. Locks are held until the surrounding
// transaction commits or rolls back, serializing concurrent consumption
// of the same lot.
func (r *GormStockEntryRepository) FindActiveByLotForUpdate(ctx context.Context, lot stock.Lot) ([]stock.StockEntry, error) {
	var entries []stock.StockEntry
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("category = ? AND lot_code = ? AND is_active = ?", lot.Category, lot.Code, true).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByLot finds all entries of a lot, active or not
func (r *GormStockEntryRepository) FindByLot(ctx context.Context, lot stock.Lot, filter shared.Filter) ([]stock.StockEntry, error) {
	var entries []stock.StockEntry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.StockEntry{}).
			Where("category = ? AND lot_code = ?", lot.Category, lot.Code),
		filter,
	)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByCategory finds entries in a category
func (r *GormStockEntryRepository) FindByCategory(ctx context.Context, category stock.ConsumableCategory, filter shared.Filter) ([]stock.StockEntry, error) {
	var entries []stock.StockEntry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.StockEntry{}).
			Where("category = ?", category),
		filter,
	)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListLots returns the distinct lots with at least one entry in the category
func (r *GormStockEntryRepository) ListLots(ctx context.Context, category stock.ConsumableCategory) ([]stock.Lot, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&stock.StockEntry{}).
		Where("category = ?", category).
		Distinct("lot_code").
		Order("lot_code ASC").
		Pluck("lot_code", &codes).Error; err != nil {
		return nil, err
	}

	lots := make([]stock.Lot, 0, len(codes))
	for _, code := range codes {
		lot, err := stock.NewLot(category, code)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

// Save creates or updates a stock entry
func (r *GormStockEntryRepository) Save(ctx context.Context, entry *stock.StockEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockEntryRepository) SaveWithLock(ctx context.Context, entry *stock.StockEntry) error {
	result := r.db.WithContext(ctx).
		Model(entry).
		Where("id = ? AND version = ?", entry.ID, entry.Version-1).
		Updates(map[string]interface{}{
			"total_quantity":    entry.TotalQuantity,
			"consumed_quantity": entry.ConsumedQuantity,
			"is_active":         entry.IsActive,
			"version":           entry.Version,
			"updated_at":        entry.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Stock entry was modified by another transaction")
	}
	return nil
}

// CountByLot counts entries of a lot
func (r *GormStockEntryRepository) CountByLot(ctx context.Context, lot stock.Lot) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&stock.StockEntry{}).
		Where("category = ? AND lot_code = ?", lot.Category, lot.Code).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter, pagination and ordering options
func (r *GormStockEntryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "unit":
			query = query.Where("unit = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("total_quantity - consumed_quantity > 0")
			}
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at ASC")
	}

	return query
}

// Ensure GormStockEntryRepository implements StockEntryRepository
var _ stock.StockEntryRepository = (*GormStockEntryRepository)(nil)
