package stock

import (
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockEntry represents one physical delivery of a consumable material.
// Entries sharing a lot identifier form a logical lot; consumption drains
// the oldest entry first by creation time.
//
// TotalQuantity and ConsumedQuantity are the legacy aggregate pair kept
// in sync with the transaction ledger after every mutation. The ledger
// is the source of truth for entries that have transactions; the pair is
// the fallback read path for entries that were never migrated.
type StockEntry struct {
	shared.BaseAggregateRoot
	Category         ConsumableCategory `gorm:"type:varchar(20);not null;index:idx_stock_entry_lot,priority:1"`
	LotCode          string             `gorm:"type:varchar(50);not null;index:idx_stock_entry_lot,priority:2"`
	Unit             MassUnit           `gorm:"type:varchar(10);not null"`
	TotalQuantity    decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	ConsumedQuantity decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive         bool               `gorm:"not null;default:true;index:idx_stock_entry_lot,priority:3"`

	// Associations - loaded lazily
	Transactions []StockTransaction `gorm:"foreignKey:StockEntryID;references:ID"`
}

// TableName returns the table name for GORM
func (StockEntry) TableName() string {
	return "stock_entries"
}

// NewStockEntry creates a stock entry for a received delivery
func NewStockEntry(lot Lot, unit MassUnit, quantity decimal.Decimal) (*StockEntry, error) {
	if !lot.Category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Unknown consumable category: "+string(lot.Category))
	}
	if lot.Code == "" {
		return nil, shared.NewDomainError("INVALID_LOT_CODE", "Lot code cannot be empty")
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("UNIT_CONVERSION", "No conversion defined for unit: "+string(unit))
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Initial quantity cannot be negative")
	}

	entry := &StockEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Category:          lot.Category,
		LotCode:           lot.Code,
		Unit:              unit,
		TotalQuantity:     quantity,
		ConsumedQuantity:  decimal.Zero,
		IsActive:          true,
		Transactions:      make([]StockTransaction, 0),
	}

	entry.AddDomainEvent(NewEntryReceivedEvent(entry, quantity))
	return entry, nil
}

// Lot returns the entry's lot identifier
func (e *StockEntry) Lot() Lot {
	return Lot{Category: e.Category, Code: e.LotCode}
}

// Available returns the aggregate-field availability. This is the legacy
// read path; ledger-tracked entries resolve from their latest transaction
// instead.
func (e *StockEntry) Available() decimal.Decimal {
	return e.TotalQuantity.Sub(e.ConsumedQuantity)
}

// ApplyChange adjusts the aggregate pair for a signed ledger quantity so
// that TotalQuantity - ConsumedQuantity tracks the new ledger balance.
// Negative amounts (consumption, waste) increment ConsumedQuantity;
// positive amounts (addition, initial seed) increment TotalQuantity.
func (e *StockEntry) ApplyChange(signed decimal.Decimal) error {
	if signed.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Quantity change cannot be zero")
	}
	if signed.IsNegative() {
		e.ConsumedQuantity = e.ConsumedQuantity.Add(signed.Neg())
	} else {
		e.TotalQuantity = e.TotalQuantity.Add(signed)
	}
	e.Touch()
	e.IncrementVersion()
	return nil
}

// Deactivate hides the entry from lot aggregation and FIFO allocation.
// Entries referenced by transactions are never deleted, only deactivated.
func (e *StockEntry) Deactivate() {
	if !e.IsActive {
		return
	}
	e.IsActive = false
	e.Touch()
	e.IncrementVersion()
	e.AddDomainEvent(NewEntryDeactivatedEvent(e))
}

// Activate makes the entry visible to lot aggregation again
func (e *StockEntry) Activate() {
	if e.IsActive {
		return
	}
	e.IsActive = true
	e.Touch()
	e.IncrementVersion()
}

// HasStock returns true if the aggregate fields show available quantity
func (e *StockEntry) HasStock() bool {
	return e.Available().GreaterThan(decimal.Zero)
}
