package stock

import (
	"context"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// ConsumptionService answers lot-level availability questions and executes
// atomic FIFO consumption across a lot's entries.
type ConsumptionService struct {
	entryRepo      stock.StockEntryRepository
	txRepo         stock.StockTransactionRepository
	txScope        TransactionScope
	planner        *stock.FIFOConsumptionPlanner
	eventPublisher shared.EventPublisher
}

// NewConsumptionService creates a new ConsumptionService
func NewConsumptionService(
	entryRepo stock.StockEntryRepository,
	txRepo stock.StockTransactionRepository,
	txScope TransactionScope,
) *ConsumptionService {
	return &ConsumptionService{
		entryRepo: entryRepo,
		txRepo:    txRepo,
		txScope:   txScope,
		planner:   stock.NewFIFOConsumptionPlanner(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ConsumptionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ConsumptionService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// resolveLot builds per-entry availability for a lot's active entries.
// Returns the entries, their availabilities, the lot unit and the summed
// available quantity.
func (s *ConsumptionService) resolveLot(
	ctx context.Context,
	entryRepo stock.StockEntryRepository,
	txRepo stock.StockTransactionRepository,
	lot stock.Lot,
	forUpdate bool,
) ([]stock.StockEntry, []stock.EntryAvailability, stock.MassUnit, decimal.Decimal, error) {
	var entries []stock.StockEntry
	var err error
	if forUpdate {
		entries, err = entryRepo.FindActiveByLotForUpdate(ctx, lot)
	} else {
		entries, err = entryRepo.FindActiveByLot(ctx, lot)
	}
	if err != nil {
		return nil, nil, "", decimal.Zero, err
	}

	unit := stock.UnitGram
	if len(entries) > 0 {
		unit = entries[0].Unit
	}

	availabilities := make([]stock.EntryAvailability, 0, len(entries))
	total := decimal.Zero
	for i := range entries {
		available, err := resolveAvailable(ctx, txRepo, &entries[i])
		if err != nil {
			return nil, nil, "", decimal.Zero, err
		}
		availabilities = append(availabilities, stock.EntryAvailability{
			Entry:     &entries[i],
			Available: available,
		})
		total = total.Add(available)
	}
	return entries, availabilities, unit, total, nil
}

// Quantity returns the lot's total available quantity across active
// entries, in the lot's unit
func (s *ConsumptionService) Quantity(ctx context.Context, lot stock.Lot) (decimal.Decimal, stock.MassUnit, error) {
	_, _, unit, total, err := s.resolveLot(ctx, s.entryRepo, s.txRepo, lot, false)
	if err != nil {
		return decimal.Zero, "", err
	}
	return total, unit, nil
}

// LotSummary aggregates a lot's active entries into a single view
func (s *ConsumptionService) LotSummary(ctx context.Context, lot stock.Lot) (*LotSummaryResponse, error) {
	entries, _, unit, total, err := s.resolveLot(ctx, s.entryRepo, s.txRepo, lot, false)
	if err != nil {
		return nil, err
	}
	return &LotSummaryResponse{
		Category:   lot.Category.String(),
		LotCode:    lot.Code,
		Unit:       unit.String(),
		Quantity:   total,
		EntryCount: len(entries),
		IsDepleted: total.LessThanOrEqual(decimal.Zero),
	}, nil
}

// IsDepleted reports whether a lot has no available quantity left. A lot
// with no active entries is depleted.
func (s *ConsumptionService) IsDepleted(ctx context.Context, lot stock.Lot) (bool, error) {
	total, _, err := s.Quantity(ctx, lot)
	if err != nil {
		return false, err
	}
	return total.LessThanOrEqual(decimal.Zero), nil
}

// ListLots summarizes every lot that has at least one entry in the
// category, including depleted ones
func (s *ConsumptionService) ListLots(ctx context.Context, category stock.ConsumableCategory) ([]LotSummaryResponse, error) {
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Unknown consumable category: "+string(category))
	}

	lots, err := s.entryRepo.ListLots(ctx, category)
	if err != nil {
		return nil, err
	}

	summaries := make([]LotSummaryResponse, 0, len(lots))
	for _, lot := range lots {
		summary, err := s.LotSummary(ctx, lot)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// LotEntries lists a lot's entries, active or not, with pagination.
// Returns the page of entries and the lot's total entry count.
func (s *ConsumptionService) LotEntries(ctx context.Context, lot stock.Lot, filter shared.Filter) ([]StockEntryResponse, int64, error) {
	entries, err := s.entryRepo.FindByLot(ctx, lot, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.entryRepo.CountByLot(ctx, lot)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]StockEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ToStockEntryResponse(&entries[i]))
	}
	return responses, total, nil
}

// CanConsume reports whether the lot can cover the requested quantity.
// Read-only: no locks, no mutation.
func (s *ConsumptionService) CanConsume(ctx context.Context, lot stock.Lot, quantity decimal.Decimal, unit stock.MassUnit) (*CanConsumeResponse, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Quantity must be positive")
	}

	_, _, lotUnit, total, err := s.resolveLot(ctx, s.entryRepo, s.txRepo, lot, false)
	if err != nil {
		return nil, err
	}

	requested, err := stock.ConvertMass(quantity, unit, lotUnit)
	if err != nil {
		return nil, err
	}

	return &CanConsumeResponse{
		CanConsume: requested.LessThanOrEqual(total),
		Requested:  requested,
		Available:  total,
		Unit:       lotUnit.String(),
	}, nil
}

// PlanConsumption computes the FIFO allocation for a requested quantity
// without executing it. Under-covering plans are returned with their
// shortfall so callers can preview partial coverage.
func (s *ConsumptionService) PlanConsumption(ctx context.Context, lot stock.Lot, quantity decimal.Decimal, unit stock.MassUnit) (*ConsumptionPlanResponse, error) {
	_, availabilities, lotUnit, _, err := s.resolveLot(ctx, s.entryRepo, s.txRepo, lot, false)
	if err != nil {
		return nil, err
	}

	requested, err := stock.ConvertMass(quantity, unit, lotUnit)
	if err != nil {
		return nil, err
	}

	plan, err := s.planner.Plan(requested, availabilities)
	if err != nil {
		return nil, err
	}

	response := ToConsumptionPlanResponse(plan, lotUnit)
	return &response, nil
}

// Consume executes an atomic FIFO consumption against a lot. All entries
// of the lot are row-locked for the duration, the request is either fully
// covered or rejected with InsufficientStockError, and one ledger
// transaction is written per entry drawn from. No partial consumption is
// ever persisted.
func (s *ConsumptionService) Consume(ctx context.Context, req ConsumeRequest) (*ConsumeResponse, error) {
	lot, err := stock.NewLot(stock.ConsumableCategory(req.Category), req.LotCode)
	if err != nil {
		return nil, err
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Quantity must be positive")
	}

	var response *ConsumeResponse
	var consumedEntries []*stock.StockEntry

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, availabilities, lotUnit, total, err := s.resolveLot(
			ctx, repos.EntryRepo(), repos.TransactionRepo(), lot, true)
		if err != nil {
			return err
		}

		requested, err := stock.ConvertMass(req.Quantity, stock.MassUnit(req.Unit), lotUnit)
		if err != nil {
			return err
		}
		if len(entries) == 0 || requested.GreaterThan(total) {
			return stock.NewInsufficientStockError(lot, requested, total)
		}

		plan, err := s.planner.Plan(requested, availabilities)
		if err != nil {
			return err
		}
		if !plan.FullyCovered() {
			return stock.NewInsufficientStockError(lot, requested, total)
		}

		byID := make(map[string]*stock.StockEntry, len(entries))
		for i := range entries {
			byID[entries[i].ID.String()] = &entries[i]
		}

		txs := make([]*stock.StockTransaction, 0, len(plan.Steps))
		for _, step := range plan.Steps {
			entry := byID[step.EntryID.String()]

			tx, err := stock.NewStockTransaction(entry.ID, stock.TransactionTypeConsumption,
				step.Take.Neg(), step.RemainingAfter)
			if err != nil {
				return err
			}
			tx.WithLot(lot).MarkFIFO().WithNotes(req.Notes)
			if req.ReferenceType != "" || req.ReferenceID != "" {
				tx.WithReference(req.ReferenceType, req.ReferenceID)
			}
			if req.ActorID != nil {
				tx.WithActor(*req.ActorID)
			}
			txs = append(txs, tx)

			if err := entry.ApplyChange(step.Take.Neg()); err != nil {
				return err
			}
			if err := repos.EntryRepo().SaveWithLock(ctx, entry); err != nil {
				return err
			}
			consumedEntries = append(consumedEntries, entry)
		}

		if err := repos.TransactionRepo().CreateBatch(ctx, txs); err != nil {
			return err
		}

		txResponses := make([]TransactionResponse, 0, len(txs))
		for _, tx := range txs {
			txResponses = append(txResponses, ToTransactionResponse(tx))
		}
		remaining := total.Sub(requested)
		response = &ConsumeResponse{
			Category:     lot.Category.String(),
			LotCode:      lot.Code,
			Consumed:     requested,
			Unit:         lotUnit.String(),
			Remaining:    remaining,
			Depleted:     remaining.LessThanOrEqual(decimal.Zero),
			Transactions: txResponses,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(consumedEntries) > 0 {
		first := consumedEntries[0]
		s.publish(ctx, stock.NewLotConsumedEvent(first.ID, lot, response.Consumed,
			len(consumedEntries), req.ReferenceType, req.ReferenceID))
		if response.Depleted {
			last := consumedEntries[len(consumedEntries)-1]
			s.publish(ctx, stock.NewLotDepletedEvent(last.ID, lot))
		}
	}
	return response, nil
}
