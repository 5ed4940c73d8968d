package stock

import (
	"context"
	"sort"
	"sync"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/google/uuid"
)

// MockEventPublisher collects published domain events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// fakeEntryRepo is a stateful in-memory StockEntryRepository
type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*stock.StockEntry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[uuid.UUID]*stock.StockEntry)}
}

func (r *fakeEntryRepo) clone(e *stock.StockEntry) *stock.StockEntry {
	c := *e
	return &c
}

func (r *fakeEntryRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.StockEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r.clone(e), nil
}

func (r *fakeEntryRepo) findByLot(lot stock.Lot, activeOnly bool) []stock.StockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]stock.StockEntry, 0)
	for _, e := range r.entries {
		if e.Category != lot.Category || e.LotCode != lot.Code {
			continue
		}
		if activeOnly && !e.IsActive {
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}

func (r *fakeEntryRepo) FindActiveByLot(_ context.Context, lot stock.Lot) ([]stock.StockEntry, error) {
	return r.findByLot(lot, true), nil
}

func (r *fakeEntryRepo) FindActiveByLotForUpdate(_ context.Context, lot stock.Lot) ([]stock.StockEntry, error) {
	return r.findByLot(lot, true), nil
}

func (r *fakeEntryRepo) FindByLot(_ context.Context, lot stock.Lot, _ shared.Filter) ([]stock.StockEntry, error) {
	return r.findByLot(lot, false), nil
}

func (r *fakeEntryRepo) FindByCategory(_ context.Context, category stock.ConsumableCategory, _ shared.Filter) ([]stock.StockEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]stock.StockEntry, 0)
	for _, e := range r.entries {
		if e.Category == category {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *fakeEntryRepo) ListLots(_ context.Context, category stock.ConsumableCategory) ([]stock.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]stock.Lot)
	for _, e := range r.entries {
		if e.Category == category {
			seen[e.LotCode] = e.Lot()
		}
	}
	result := make([]stock.Lot, 0, len(seen))
	for _, lot := range seen {
		result = append(result, lot)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *fakeEntryRepo) Save(_ context.Context, entry *stock.StockEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = r.clone(entry)
	return nil
}

func (r *fakeEntryRepo) SaveWithLock(_ context.Context, entry *stock.StockEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[entry.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if existing.Version >= entry.Version {
		return shared.ErrConcurrencyConflict
	}
	r.entries[entry.ID] = r.clone(entry)
	return nil
}

func (r *fakeEntryRepo) CountByLot(_ context.Context, lot stock.Lot) (int64, error) {
	return int64(len(r.findByLot(lot, false))), nil
}

// fakeTxRepo is a stateful in-memory StockTransactionRepository
type fakeTxRepo struct {
	mu  sync.Mutex
	txs []stock.StockTransaction
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{txs: make([]stock.StockTransaction, 0)}
}

func (r *fakeTxRepo) Create(_ context.Context, tx *stock.StockTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *fakeTxRepo) CreateBatch(ctx context.Context, txs []*stock.StockTransaction) error {
	for _, tx := range txs {
		if err := r.Create(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeTxRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.StockTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.txs {
		if r.txs[i].ID == id {
			tx := r.txs[i]
			return &tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeTxRepo) byEntry(entryID uuid.UUID) []stock.StockTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]stock.StockTransaction, 0)
	for i := range r.txs {
		if r.txs[i].StockEntryID == entryID {
			result = append(result, r.txs[i])
		}
	}
	return result
}

func (r *fakeTxRepo) FindByEntry(_ context.Context, entryID uuid.UUID) ([]stock.StockTransaction, error) {
	return r.byEntry(entryID), nil
}

func (r *fakeTxRepo) FindRecentByEntry(_ context.Context, entryID uuid.UUID, limit int) ([]stock.StockTransaction, error) {
	txs := r.byEntry(entryID)
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (r *fakeTxRepo) FindLatestByEntry(_ context.Context, entryID uuid.UUID) (*stock.StockTransaction, error) {
	txs := r.byEntry(entryID)
	if len(txs) == 0 {
		return nil, shared.ErrNotFound
	}
	tx := txs[len(txs)-1]
	return &tx, nil
}

func (r *fakeTxRepo) HasTransactions(_ context.Context, entryID uuid.UUID) (bool, error) {
	return len(r.byEntry(entryID)) > 0, nil
}

func (r *fakeTxRepo) CountByEntry(_ context.Context, entryID uuid.UUID) (int64, error) {
	return int64(len(r.byEntry(entryID))), nil
}

func (r *fakeTxRepo) FindByReference(_ context.Context, refType, refID string) ([]stock.StockTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]stock.StockTransaction, 0)
	for i := range r.txs {
		if r.txs[i].ReferenceType == refType && r.txs[i].ReferenceID == refID {
			result = append(result, r.txs[i])
		}
	}
	return result, nil
}

var _ stock.StockEntryRepository = (*fakeEntryRepo)(nil)
var _ stock.StockTransactionRepository = (*fakeTxRepo)(nil)
