package stock

import (
	"context"
	"errors"
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultHistoryLimit bounds ledger history queries when the caller does
// not specify a limit
const DefaultHistoryLimit = 50

// LedgerService handles stock entry lifecycle and the transaction ledger:
// receiving entries, seeding ledgers from legacy aggregate fields, adding
// stock, recording waste, and reading history.
type LedgerService struct {
	entryRepo      stock.StockEntryRepository
	txRepo         stock.StockTransactionRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	entryRepo stock.StockEntryRepository,
	txRepo stock.StockTransactionRepository,
	txScope TransactionScope,
) *LedgerService {
	return &LedgerService{
		entryRepo: entryRepo,
		txRepo:    txRepo,
		txScope:   txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes all domain events from the stock entry
func (s *LedgerService) publishDomainEvents(ctx context.Context, entry *stock.StockEntry) {
	if s.eventPublisher == nil {
		return
	}
	events := entry.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
	entry.ClearDomainEvents()
}

func (s *LedgerService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// resolveAvailable returns the entry's available quantity, preferring the
// latest ledger balance and falling back to the aggregate quantity fields
// for entries whose ledger has not been seeded yet.
func resolveAvailable(ctx context.Context, txRepo stock.StockTransactionRepository, entry *stock.StockEntry) (decimal.Decimal, error) {
	latest, err := txRepo.FindLatestByEntry(ctx, entry.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return entry.Available(), nil
		}
		return decimal.Zero, err
	}
	return latest.BalanceAfter, nil
}

// ReceiveEntry creates a new stock entry in a lot and seeds its ledger
// with an initial transaction. If the lot already has active entries with
// a different unit, the incoming quantity is converted so all entries of
// a lot share one unit.
func (s *LedgerService) ReceiveEntry(ctx context.Context, req ReceiveEntryRequest) (*StockEntryResponse, error) {
	lot, err := stock.NewLot(stock.ConsumableCategory(req.Category), req.LotCode)
	if err != nil {
		return nil, err
	}
	unit := stock.MassUnit(req.Unit)
	quantity := req.Quantity

	var entry *stock.StockEntry
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.EntryRepo().FindActiveByLot(ctx, lot)
		if err != nil {
			return err
		}
		if len(existing) > 0 && existing[0].Unit != unit {
			quantity, err = stock.ConvertMass(quantity, unit, existing[0].Unit)
			if err != nil {
				return err
			}
			unit = existing[0].Unit
		}

		entry, err = stock.NewStockEntry(lot, unit, quantity)
		if err != nil {
			return err
		}
		if err := repos.EntryRepo().Save(ctx, entry); err != nil {
			return err
		}

		tx, err := stock.NewStockTransaction(entry.ID, stock.TransactionTypeInitial, quantity, quantity)
		if err != nil {
			return err
		}
		tx.WithLot(lot).WithNotes(req.Notes)
		if req.ActorID != nil {
			tx.WithActor(*req.ActorID)
		}
		return repos.TransactionRepo().Create(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, entry)
	response := ToStockEntryResponse(entry)
	return &response, nil
}

// InitializeLedger seeds an entry's ledger from its aggregate quantity
// fields. Idempotent: if the entry already has transactions, the existing
// latest transaction is returned and nothing is written. An entry with
// nothing available is a no-op and returns nil.
func (s *LedgerService) InitializeLedger(ctx context.Context, entryID uuid.UUID) (*TransactionResponse, error) {
	var result *stock.StockTransaction
	var entry *stock.StockEntry

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.EntryRepo().FindByID(ctx, entryID)
		if err != nil {
			return err
		}

		latest, err := repos.TransactionRepo().FindLatestByEntry(ctx, entryID)
		if err == nil {
			result = latest
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		available := entry.Available()
		if available.LessThanOrEqual(decimal.Zero) {
			// Nothing to seed; leave the ledger empty.
			return nil
		}

		tx, err := stock.NewStockTransaction(entryID, stock.TransactionTypeInitial, available, available)
		if err != nil {
			return err
		}
		tx.WithLot(entry.Lot()).
			WithMigrationContext(entry.TotalQuantity, entry.ConsumedQuantity, time.Now())
		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return err
		}
		result = tx
		s.publish(ctx, stock.NewLedgerInitializedEvent(entry, tx.ID, available))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	response := ToTransactionResponse(result)
	return &response, nil
}

// AddStock appends an addition transaction and updates the entry's
// aggregate quantity fields so both representations stay in sync.
func (s *LedgerService) AddStock(ctx context.Context, entryID uuid.UUID, req AddStockRequest) (*TransactionResponse, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Quantity must be positive")
	}

	var tx *stock.StockTransaction
	var entry *stock.StockEntry

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.EntryRepo().FindByID(ctx, entryID)
		if err != nil {
			return err
		}
		if !entry.IsActive {
			return shared.NewDomainError("ENTRY_INACTIVE", "Cannot add stock to a deactivated entry")
		}

		quantity, err := stock.ConvertMass(req.Quantity, stock.MassUnit(req.Unit), entry.Unit)
		if err != nil {
			return err
		}

		balance, err := resolveAvailable(ctx, repos.TransactionRepo(), entry)
		if err != nil {
			return err
		}

		tx, err = stock.NewStockTransaction(entryID, stock.TransactionTypeAddition, quantity, balance.Add(quantity))
		if err != nil {
			return err
		}
		tx.WithLot(entry.Lot()).WithNotes(req.Notes)
		if req.ActorID != nil {
			tx.WithActor(*req.ActorID)
		}

		if err := entry.ApplyChange(quantity); err != nil {
			return err
		}
		if err := repos.EntryRepo().SaveWithLock(ctx, entry); err != nil {
			return err
		}
		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return err
		}

		s.publish(ctx, stock.NewStockAddedEvent(entry, quantity, tx.BalanceAfter))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, entry)
	response := ToTransactionResponse(tx)
	return &response, nil
}

// RecordWaste appends a waste transaction for spoiled or spilled stock.
// Waste cannot exceed the entry's available quantity.
func (s *LedgerService) RecordWaste(ctx context.Context, entryID uuid.UUID, req WasteStockRequest) (*TransactionResponse, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Quantity must be positive")
	}

	var tx *stock.StockTransaction
	var entry *stock.StockEntry

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.EntryRepo().FindByID(ctx, entryID)
		if err != nil {
			return err
		}

		quantity, err := stock.ConvertMass(req.Quantity, stock.MassUnit(req.Unit), entry.Unit)
		if err != nil {
			return err
		}

		balance, err := resolveAvailable(ctx, repos.TransactionRepo(), entry)
		if err != nil {
			return err
		}
		if quantity.GreaterThan(balance) {
			return stock.NewInsufficientStockError(entry.Lot(), quantity, balance)
		}

		tx, err = stock.NewStockTransaction(entryID, stock.TransactionTypeWaste, quantity.Neg(), balance.Sub(quantity))
		if err != nil {
			return err
		}
		tx.WithLot(entry.Lot()).WithNotes(req.Reason)
		if req.ActorID != nil {
			tx.WithActor(*req.ActorID)
		}

		if err := entry.ApplyChange(quantity.Neg()); err != nil {
			return err
		}
		if err := repos.EntryRepo().SaveWithLock(ctx, entry); err != nil {
			return err
		}
		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return err
		}

		s.publish(ctx, stock.NewStockWastedEvent(entry, quantity, tx.BalanceAfter, req.Reason))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, entry)
	response := ToTransactionResponse(tx)
	return &response, nil
}

// GetEntry retrieves a stock entry by ID
func (s *LedgerService) GetEntry(ctx context.Context, entryID uuid.UUID) (*StockEntryResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	response := ToStockEntryResponse(entry)
	return &response, nil
}

// EntryBalance returns the entry's resolved available quantity in the
// entry's unit: latest ledger balance if the ledger is seeded, otherwise
// the aggregate quantity fields.
func (s *LedgerService) EntryBalance(ctx context.Context, entryID uuid.UUID) (decimal.Decimal, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return decimal.Zero, err
	}
	return resolveAvailable(ctx, s.txRepo, entry)
}

// History returns an entry's ledger transactions, newest first by
// default. Order asc returns them chronologically instead.
func (s *LedgerService) History(ctx context.Context, entryID uuid.UUID, filter EntryHistoryFilter) ([]TransactionResponse, error) {
	if _, err := s.entryRepo.FindByID(ctx, entryID); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var txs []stock.StockTransaction
	var err error
	if filter.Order == HistoryOrderAsc {
		txs, err = s.txRepo.FindByEntry(ctx, entryID)
		if err == nil && len(txs) > limit {
			txs = txs[:limit]
		}
	} else {
		txs, err = s.txRepo.FindRecentByEntry(ctx, entryID, limit)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		responses = append(responses, ToTransactionResponse(&txs[i]))
	}
	return responses, nil
}

// VerifyLedger replays an entry's full ledger and checks every recorded
// running balance
func (s *LedgerService) VerifyLedger(ctx context.Context, entryID uuid.UUID) error {
	txs, err := s.txRepo.FindByEntry(ctx, entryID)
	if err != nil {
		return err
	}
	return stock.ReplayBalances(txs)
}

// DeactivateEntry hides an entry from lot aggregation and FIFO planning.
// Entries with ledger history are never deleted.
func (s *LedgerService) DeactivateEntry(ctx context.Context, entryID uuid.UUID) error {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return err
	}
	if !entry.IsActive {
		return nil
	}
	entry.Deactivate()
	if err := s.entryRepo.SaveWithLock(ctx, entry); err != nil {
		return err
	}
	s.publishDomainEvents(ctx, entry)
	return nil
}

// ActivateEntry makes an entry visible to lot aggregation again
func (s *LedgerService) ActivateEntry(ctx context.Context, entryID uuid.UUID) error {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.IsActive {
		return nil
	}
	entry.Activate()
	if err := s.entryRepo.SaveWithLock(ctx, entry); err != nil {
		return err
	}
	s.publishDomainEvents(ctx, entry)
	return nil
}
