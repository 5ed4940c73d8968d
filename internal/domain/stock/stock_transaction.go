package stock

import (
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of ledger transaction
type TransactionType string

const (
	// TransactionTypeInitial seeds the ledger from the legacy aggregate
	// fields. Written at most once per entry.
	TransactionTypeInitial TransactionType = "initial"
	// TransactionTypeConsumption represents stock drawn down by a consumer
	TransactionTypeConsumption TransactionType = "consumption"
	// TransactionTypeAddition represents stock added to an existing entry
	TransactionTypeAddition TransactionType = "addition"
	// TransactionTypeWaste represents stock discarded (spoilage, spillage)
	TransactionTypeWaste TransactionType = "waste"
)

// String returns the string representation of the transaction type
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeInitial, TransactionTypeConsumption, TransactionTypeAddition, TransactionTypeWaste:
		return true
	}
	return false
}

// IsDecrease returns true if this type carries a negative quantity
func (t TransactionType) IsDecrease() bool {
	return t == TransactionTypeConsumption || t == TransactionTypeWaste
}

// TransactionMetadata is the audit context attached to every ledger row.
// FIFO-derived consumption rows always carry the lot identifier and the
// FIFOConsumption flag; initial rows carry the migrated aggregate values.
type TransactionMetadata struct {
	LotCode         string             `json:"lot_code,omitempty"`
	Category        ConsumableCategory `json:"category,omitempty"`
	FIFOConsumption bool               `json:"fifo_consumption,omitempty"`
	ReferenceType   string             `json:"reference_type,omitempty"`
	ReferenceID     string             `json:"reference_id,omitempty"`

	// Migration context for initial transactions
	MigratedTotalQuantity    *decimal.Decimal `json:"migrated_total_quantity,omitempty"`
	MigratedConsumedQuantity *decimal.Decimal `json:"migrated_consumed_quantity,omitempty"`
	MigratedAt               *time.Time       `json:"migrated_at,omitempty"`

	// Extra holds free-form audit keys that have no typed field
	Extra map[string]string `json:"extra,omitempty"`
}

// StockTransaction is an immutable ledger record of one signed quantity
// change against a stock entry. Once written, transactions are never
// updated or deleted; corrections are new transactions.
//
// Invariant: ordered by creation time per entry, each BalanceAfter equals
// the previous BalanceAfter plus this row's signed Quantity, starting
// from zero before the first (initial) row.
type StockTransaction struct {
	shared.BaseEntity
	StockEntryID  uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_tx_entry_time,priority:1"`
	Type          TransactionType     `gorm:"type:varchar(20);not null;index"`
	Quantity      decimal.Decimal     `gorm:"type:decimal(18,4);not null"` // Signed: negative for consumption/waste
	BalanceAfter  decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ActorID       *uuid.UUID          `gorm:"type:uuid"`
	ReferenceType string              `gorm:"type:varchar(50);index:idx_stock_tx_reference,priority:1"`
	ReferenceID   string              `gorm:"type:varchar(50);index:idx_stock_tx_reference,priority:2"`
	Notes         string              `gorm:"type:varchar(255)"`
	Metadata      TransactionMetadata `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// NewStockTransaction creates a ledger transaction. The quantity sign
// must match the type: initial and addition are positive, consumption
// and waste are negative.
func NewStockTransaction(
	entryID uuid.UUID,
	txType TransactionType,
	quantity decimal.Decimal,
	balanceAfter decimal.Decimal,
) (*StockTransaction, error) {
	if entryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTRY", "Stock entry ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction quantity cannot be zero")
	}
	if txType.IsDecrease() && quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Quantity must be negative for "+string(txType))
	}
	if !txType.IsDecrease() && quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Quantity must be positive for "+string(txType))
	}

	return &StockTransaction{
		BaseEntity:   shared.NewBaseEntity(),
		StockEntryID: entryID,
		Type:         txType,
		Quantity:     quantity,
		BalanceAfter: balanceAfter,
	}, nil
}

// WithActor sets the user or process responsible for the transaction
func (t *StockTransaction) WithActor(actorID uuid.UUID) *StockTransaction {
	t.ActorID = &actorID
	return t
}

// WithReference points the transaction at the causing business object
// (e.g. a production run). The reference is mirrored into the metadata
// so the audit record is self-contained.
func (t *StockTransaction) WithReference(refType, refID string) *StockTransaction {
	t.ReferenceType = refType
	t.ReferenceID = refID
	t.Metadata.ReferenceType = refType
	t.Metadata.ReferenceID = refID
	return t
}

// WithNotes attaches free-form audit notes
func (t *StockTransaction) WithNotes(notes string) *StockTransaction {
	t.Notes = notes
	return t
}

// WithLot tags the transaction with its lot identifier. Required for
// every FIFO-derived consumption row.
func (t *StockTransaction) WithLot(lot Lot) *StockTransaction {
	t.Metadata.LotCode = lot.Code
	t.Metadata.Category = lot.Category
	return t
}

// MarkFIFO flags the transaction as produced by the FIFO executor
func (t *StockTransaction) MarkFIFO() *StockTransaction {
	t.Metadata.FIFOConsumption = true
	return t
}

// WithMigrationContext records the aggregate field values an initial
// transaction was seeded from
func (t *StockTransaction) WithMigrationContext(total, consumed decimal.Decimal, at time.Time) *StockTransaction {
	t.Metadata.MigratedTotalQuantity = &total
	t.Metadata.MigratedConsumedQuantity = &consumed
	t.Metadata.MigratedAt = &at
	return t
}

// ReplayBalances validates the ledger invariant over a chronologically
// ordered transaction list: every BalanceAfter must equal the running sum
// of signed quantities starting from zero.
func ReplayBalances(txs []StockTransaction) error {
	balance := decimal.Zero
	for i := range txs {
		balance = balance.Add(txs[i].Quantity)
		if !balance.Equal(txs[i].BalanceAfter) {
			return shared.NewDomainError("LEDGER_CORRUPT",
				"Transaction "+txs[i].ID.String()+" balance does not replay: expected "+
					balance.String()+", recorded "+txs[i].BalanceAfter.String())
		}
	}
	return nil
}
