package stock

import (
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeStockEntry = "StockEntry"

// Event type constants
const (
	EventTypeEntryReceived     = "EntryReceived"
	EventTypeEntryDeactivated  = "EntryDeactivated"
	EventTypeLedgerInitialized = "LedgerInitialized"
	EventTypeStockAdded        = "StockAdded"
	EventTypeStockWasted       = "StockWasted"
	EventTypeLotConsumed       = "LotConsumed"
	EventTypeLotDepleted       = "LotDepleted"
)

// EntryReceivedEvent is raised when a new stock entry enters a lot
type EntryReceivedEvent struct {
	shared.BaseDomainEvent
	StockEntryID uuid.UUID          `json:"stock_entry_id"`
	Category     ConsumableCategory `json:"category"`
	LotCode      string             `json:"lot_code"`
	Unit         MassUnit           `json:"unit"`
	Quantity     decimal.Decimal    `json:"quantity"`
}

// NewEntryReceivedEvent creates a new EntryReceivedEvent
func NewEntryReceivedEvent(entry *StockEntry, quantity decimal.Decimal) *EntryReceivedEvent {
	return &EntryReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryReceived, AggregateTypeStockEntry, entry.ID),
		StockEntryID:    entry.ID,
		Category:        entry.Category,
		LotCode:         entry.LotCode,
		Unit:            entry.Unit,
		Quantity:        quantity,
	}
}

// EventType returns the event type name
func (e *EntryReceivedEvent) EventType() string {
	return EventTypeEntryReceived
}

// EntryDeactivatedEvent is raised when an entry is hidden from lot aggregation
type EntryDeactivatedEvent struct {
	shared.BaseDomainEvent
	StockEntryID uuid.UUID          `json:"stock_entry_id"`
	Category     ConsumableCategory `json:"category"`
	LotCode      string             `json:"lot_code"`
}

// NewEntryDeactivatedEvent creates a new EntryDeactivatedEvent
func NewEntryDeactivatedEvent(entry *StockEntry) *EntryDeactivatedEvent {
	return &EntryDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryDeactivated, AggregateTypeStockEntry, entry.ID),
		StockEntryID:    entry.ID,
		Category:        entry.Category,
		LotCode:         entry.LotCode,
	}
}

// EventType returns the event type name
func (e *EntryDeactivatedEvent) EventType() string {
	return EventTypeEntryDeactivated
}

// LedgerInitializedEvent is raised when an entry's ledger is seeded from
// its aggregate quantity fields
type LedgerInitializedEvent struct {
	shared.BaseDomainEvent
	StockEntryID  uuid.UUID       `json:"stock_entry_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Balance       decimal.Decimal `json:"balance"`
}

// NewLedgerInitializedEvent creates a new LedgerInitializedEvent
func NewLedgerInitializedEvent(entry *StockEntry, txID uuid.UUID, balance decimal.Decimal) *LedgerInitializedEvent {
	return &LedgerInitializedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerInitialized, AggregateTypeStockEntry, entry.ID),
		StockEntryID:    entry.ID,
		TransactionID:   txID,
		Balance:         balance,
	}
}

// EventType returns the event type name
func (e *LedgerInitializedEvent) EventType() string {
	return EventTypeLedgerInitialized
}

// StockAddedEvent is raised when quantity is added to an existing entry
type StockAddedEvent struct {
	shared.BaseDomainEvent
	StockEntryID uuid.UUID       `json:"stock_entry_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// NewStockAddedEvent creates a new StockAddedEvent
func NewStockAddedEvent(entry *StockEntry, quantity, balanceAfter decimal.Decimal) *StockAddedEvent {
	return &StockAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdded, AggregateTypeStockEntry, entry.ID),
		StockEntryID:    entry.ID,
		Quantity:        quantity,
		BalanceAfter:    balanceAfter,
	}
}

// EventType returns the event type name
func (e *StockAddedEvent) EventType() string {
	return EventTypeStockAdded
}

// StockWastedEvent is raised when quantity is written off an entry
type StockWastedEvent struct {
	shared.BaseDomainEvent
	StockEntryID uuid.UUID       `json:"stock_entry_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Reason       string          `json:"reason,omitempty"`
}

// NewStockWastedEvent creates a new StockWastedEvent
func NewStockWastedEvent(entry *StockEntry, quantity, balanceAfter decimal.Decimal, reason string) *StockWastedEvent {
	return &StockWastedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockWasted, AggregateTypeStockEntry, entry.ID),
		StockEntryID:    entry.ID,
		Quantity:        quantity,
		BalanceAfter:    balanceAfter,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *StockWastedEvent) EventType() string {
	return EventTypeStockWasted
}

// LotConsumedEvent is raised once per successful FIFO consumption,
// covering all entries the plan touched
type LotConsumedEvent struct {
	shared.BaseDomainEvent
	Category      ConsumableCategory `json:"category"`
	LotCode       string             `json:"lot_code"`
	Quantity      decimal.Decimal    `json:"quantity"`
	EntriesDrawn  int                `json:"entries_drawn"`
	ReferenceType string             `json:"reference_type,omitempty"`
	ReferenceID   string             `json:"reference_id,omitempty"`
}

// NewLotConsumedEvent creates a new LotConsumedEvent. The aggregate ID is
// the first entry the plan drew from.
func NewLotConsumedEvent(firstEntryID uuid.UUID, lot Lot, quantity decimal.Decimal, entriesDrawn int, refType, refID string) *LotConsumedEvent {
	return &LotConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotConsumed, AggregateTypeStockEntry, firstEntryID),
		Category:        lot.Category,
		LotCode:         lot.Code,
		Quantity:        quantity,
		EntriesDrawn:    entriesDrawn,
		ReferenceType:   refType,
		ReferenceID:     refID,
	}
}

// EventType returns the event type name
func (e *LotConsumedEvent) EventType() string {
	return EventTypeLotConsumed
}

// LotDepletedEvent is raised when a consumption leaves a lot with zero
// available quantity across all active entries
type LotDepletedEvent struct {
	shared.BaseDomainEvent
	Category ConsumableCategory `json:"category"`
	LotCode  string             `json:"lot_code"`
}

// NewLotDepletedEvent creates a new LotDepletedEvent
func NewLotDepletedEvent(lastEntryID uuid.UUID, lot Lot) *LotDepletedEvent {
	return &LotDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotDepleted, AggregateTypeStockEntry, lastEntryID),
		Category:        lot.Category,
		LotCode:         lot.Code,
	}
}

// EventType returns the event type name
func (e *LotDepletedEvent) EventType() string {
	return EventTypeLotDepleted
}
