package stock

import (
	"time"

	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockEntryResponse represents a stock entry in API responses
type StockEntryResponse struct {
	ID               uuid.UUID       `json:"id"`
	Category         string          `json:"category"`
	LotCode          string          `json:"lot_code"`
	Unit             string          `json:"unit"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	ConsumedQuantity decimal.Decimal `json:"consumed_quantity"`
	Available        decimal.Decimal `json:"available"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// ToStockEntryResponse converts a domain entry to a response DTO.
// Available reflects the aggregate fields, not the resolved ledger balance.
func ToStockEntryResponse(entry *stock.StockEntry) StockEntryResponse {
	return StockEntryResponse{
		ID:               entry.ID,
		Category:         entry.Category.String(),
		LotCode:          entry.LotCode,
		Unit:             entry.Unit.String(),
		TotalQuantity:    entry.TotalQuantity,
		ConsumedQuantity: entry.ConsumedQuantity,
		Available:        entry.Available(),
		IsActive:         entry.IsActive,
		CreatedAt:        entry.CreatedAt,
		UpdatedAt:        entry.UpdatedAt,
		Version:          entry.Version,
	}
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID            uuid.UUID                 `json:"id"`
	StockEntryID  uuid.UUID                 `json:"stock_entry_id"`
	Type          string                    `json:"type"`
	Quantity      decimal.Decimal           `json:"quantity"`
	BalanceAfter  decimal.Decimal           `json:"balance_after"`
	ActorID       *uuid.UUID                `json:"actor_id,omitempty"`
	ReferenceType string                    `json:"reference_type,omitempty"`
	ReferenceID   string                    `json:"reference_id,omitempty"`
	Notes         string                    `json:"notes,omitempty"`
	Metadata      stock.TransactionMetadata `json:"metadata"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// ToTransactionResponse converts a domain transaction to a response DTO
func ToTransactionResponse(tx *stock.StockTransaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		StockEntryID:  tx.StockEntryID,
		Type:          tx.Type.String(),
		Quantity:      tx.Quantity,
		BalanceAfter:  tx.BalanceAfter,
		ActorID:       tx.ActorID,
		ReferenceType: tx.ReferenceType,
		ReferenceID:   tx.ReferenceID,
		Notes:         tx.Notes,
		Metadata:      tx.Metadata,
		CreatedAt:     tx.CreatedAt,
	}
}

// ReceiveEntryRequest represents a request to receive new stock into a lot
type ReceiveEntryRequest struct {
	Category string          `json:"category" binding:"required,oneof=seed soil nutrient packaging"`
	LotCode  string          `json:"lot_code" binding:"required,max=50"`
	Unit     string          `json:"unit" binding:"required,oneof=g kg oz lb"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	ActorID  *uuid.UUID      `json:"actor_id"`
	Notes    string          `json:"notes" binding:"max=255"`
}

// AddStockRequest represents a request to add quantity to an existing entry
type AddStockRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Unit     string          `json:"unit" binding:"required,oneof=g kg oz lb"`
	ActorID  *uuid.UUID      `json:"actor_id"`
	Notes    string          `json:"notes" binding:"max=255"`
}

// WasteStockRequest represents a request to write quantity off an entry
type WasteStockRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Unit     string          `json:"unit" binding:"required,oneof=g kg oz lb"`
	Reason   string          `json:"reason" binding:"required,max=255"`
	ActorID  *uuid.UUID      `json:"actor_id"`
}

// ConsumeRequest represents a request to consume quantity from a lot
type ConsumeRequest struct {
	Category      string          `json:"category" binding:"required,oneof=seed soil nutrient packaging"`
	LotCode       string          `json:"lot_code" binding:"required,max=50"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	Unit          string          `json:"unit" binding:"required,oneof=g kg oz lb"`
	ReferenceType string          `json:"reference_type" binding:"max=50"`
	ReferenceID   string          `json:"reference_id" binding:"max=50"`
	ActorID       *uuid.UUID      `json:"actor_id"`
	Notes         string          `json:"notes" binding:"max=255"`
}

// PlanStepResponse is one FIFO deduction in a consumption plan
type PlanStepResponse struct {
	EntryID        uuid.UUID       `json:"entry_id"`
	Take           decimal.Decimal `json:"take"`
	RemainingAfter decimal.Decimal `json:"remaining_after"`
}

// ConsumptionPlanResponse represents a computed (not executed) FIFO plan.
// Quantities are expressed in the lot's unit.
type ConsumptionPlanResponse struct {
	Steps        []PlanStepResponse `json:"steps"`
	TotalPlanned decimal.Decimal    `json:"total_planned"`
	Shortfall    decimal.Decimal    `json:"shortfall"`
	FullyCovered bool               `json:"fully_covered"`
	Unit         string             `json:"unit"`
}

// ToConsumptionPlanResponse converts a domain plan to a response DTO
func ToConsumptionPlanResponse(plan *stock.ConsumptionPlan, unit stock.MassUnit) ConsumptionPlanResponse {
	steps := make([]PlanStepResponse, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		steps = append(steps, PlanStepResponse{
			EntryID:        s.EntryID,
			Take:           s.Take,
			RemainingAfter: s.RemainingAfter,
		})
	}
	return ConsumptionPlanResponse{
		Steps:        steps,
		TotalPlanned: plan.TotalPlanned,
		Shortfall:    plan.Shortfall,
		FullyCovered: plan.FullyCovered(),
		Unit:         unit.String(),
	}
}

// ConsumeResponse represents the outcome of an executed consumption
type ConsumeResponse struct {
	Category     string                `json:"category"`
	LotCode      string                `json:"lot_code"`
	Consumed     decimal.Decimal       `json:"consumed"`
	Unit         string                `json:"unit"`
	Remaining    decimal.Decimal       `json:"remaining"`
	Depleted     bool                  `json:"depleted"`
	Transactions []TransactionResponse `json:"transactions"`
}

// LotSummaryResponse aggregates a lot's active entries
type LotSummaryResponse struct {
	Category   string          `json:"category"`
	LotCode    string          `json:"lot_code"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryCount int             `json:"entry_count"`
	IsDepleted bool            `json:"is_depleted"`
}

// CanConsumeResponse answers a coverage check without mutating anything
type CanConsumeResponse struct {
	CanConsume bool            `json:"can_consume"`
	Requested  decimal.Decimal `json:"requested"`
	Available  decimal.Decimal `json:"available"`
	Unit       string          `json:"unit"`
}

// History orderings accepted by EntryHistoryFilter.
const (
	HistoryOrderAsc  = "asc"
	HistoryOrderDesc = "desc"
)

// EntryHistoryFilter bounds and orders a ledger history query
type EntryHistoryFilter struct {
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Order string `form:"order" binding:"omitempty,oneof=asc desc"`
}
