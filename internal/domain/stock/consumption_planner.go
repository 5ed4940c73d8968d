package stock

import (
	"sort"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryAvailability pairs a stock entry with its resolved available
// quantity. The caller resolves availability (ledger-first, aggregate
// fallback) before planning; the planner never touches storage.
type EntryAvailability struct {
	Entry     *StockEntry
	Available decimal.Decimal
}

// ConsumptionStep is one deduction against one entry in FIFO order
type ConsumptionStep struct {
	EntryID        uuid.UUID       // Entry to draw from
	Take           decimal.Decimal // Quantity drawn from this entry
	RemainingAfter decimal.Decimal // Entry availability after the draw
}

// ConsumptionPlan is the ordered allocation for one consumption request.
// A plan that does not cover the request is still returned; callers that
// require full coverage check FullyCovered before executing.
type ConsumptionPlan struct {
	Steps        []ConsumptionStep
	TotalPlanned decimal.Decimal // Sum of all step takes
	Shortfall    decimal.Decimal // Requested quantity the entries could not cover
}

// FullyCovered reports whether the plan satisfies the whole request
func (p *ConsumptionPlan) FullyCovered() bool {
	return p.Shortfall.IsZero()
}

// FIFOConsumptionPlanner computes deterministic oldest-first allocation
// plans. It is a pure calculation: no storage access, no mutation of the
// entries it is given.
type FIFOConsumptionPlanner struct{}

// NewFIFOConsumptionPlanner creates a new FIFO consumption planner
func NewFIFOConsumptionPlanner() *FIFOConsumptionPlanner {
	return &FIFOConsumptionPlanner{}
}

// Plan allocates the requested quantity across the given entries in FIFO
// order: oldest CreatedAt first, ties broken by entry ID for a stable
// order. Entries with no availability are skipped.
func (p *FIFOConsumptionPlanner) Plan(requested decimal.Decimal, entries []EntryAvailability) (*ConsumptionPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Requested quantity must be positive")
	}

	sorted := make([]EntryAvailability, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Entry.CreatedAt.Equal(sorted[j].Entry.CreatedAt) {
			return sorted[i].Entry.CreatedAt.Before(sorted[j].Entry.CreatedAt)
		}
		return sorted[i].Entry.ID.String() < sorted[j].Entry.ID.String()
	})

	plan := &ConsumptionPlan{
		Steps:        make([]ConsumptionStep, 0, len(sorted)),
		TotalPlanned: decimal.Zero,
	}

	remaining := requested
	for _, ea := range sorted {
		if remaining.IsZero() {
			break
		}
		if ea.Available.LessThanOrEqual(decimal.Zero) {
			continue
		}

		take := decimal.Min(remaining, ea.Available)
		plan.Steps = append(plan.Steps, ConsumptionStep{
			EntryID:        ea.Entry.ID,
			Take:           take,
			RemainingAfter: ea.Available.Sub(take),
		})
		plan.TotalPlanned = plan.TotalPlanned.Add(take)
		remaining = remaining.Sub(take)
	}

	plan.Shortfall = remaining
	return plan, nil
}
