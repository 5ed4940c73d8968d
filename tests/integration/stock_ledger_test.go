package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstock "github.com/farmstock/backend/internal/application/stock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/farmstock/backend/internal/infrastructure/persistence"
)

// stockServices wires the application services against a real database
type stockServices struct {
	entryRepo   *persistence.GormStockEntryRepository
	txRepo      *persistence.GormStockTransactionRepository
	ledger      *appstock.LedgerService
	consumption *appstock.ConsumptionService
}

func newStockServices(tdb *TestDB) *stockServices {
	entryRepo := persistence.NewGormStockEntryRepository(tdb.DB)
	txRepo := persistence.NewGormStockTransactionRepository(tdb.DB)
	txScope := persistence.NewGormTransactionScope(tdb.DB)

	return &stockServices{
		entryRepo:   entryRepo,
		txRepo:      txRepo,
		ledger:      appstock.NewLedgerService(entryRepo, txRepo, txScope),
		consumption: appstock.NewConsumptionService(entryRepo, txRepo, txScope),
	}
}

func TestStockLedgerFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newStockServices(testDB)
	ctx := context.Background()

	// Receive two deliveries of the same seed lot. The second arrives
	// in kilograms and must be converted to the lot's gram unit.
	older, err := svc.ledger.ReceiveEntry(ctx, appstock.ReceiveEntryRequest{
		Category: "seed",
		LotCode:  "SEED-2026-A",
		Unit:     "g",
		Quantity: decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	newer, err := svc.ledger.ReceiveEntry(ctx, appstock.ReceiveEntryRequest{
		Category: "seed",
		LotCode:  "SEED-2026-A",
		Unit:     "kg",
		Quantity: decimal.NewFromFloat(0.2),
	})
	require.NoError(t, err)

	assert.Equal(t, "g", newer.Unit)
	assert.True(t, newer.TotalQuantity.Equal(decimal.NewFromInt(200)),
		"expected 0.2kg stored as 200g, got %s", newer.TotalQuantity)

	lot, err := stock.NewLot(stock.CategorySeed, "SEED-2026-A")
	require.NoError(t, err)

	// Receiving seeds the ledger with an initial transaction
	initial, err := svc.txRepo.FindLatestByEntry(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, stock.TransactionTypeInitial, initial.Type)
	assert.True(t, initial.BalanceAfter.Equal(decimal.NewFromInt(300)))

	// Lot quantity aggregates both entries
	quantity, unit, err := svc.consumption.Quantity(ctx, lot)
	require.NoError(t, err)
	assert.Equal(t, stock.UnitGram, unit)
	assert.True(t, quantity.Equal(decimal.NewFromInt(500)))

	// Consuming 400g drains the older entry fully and takes 100g from
	// the newer one, in arrival order.
	result, err := svc.consumption.Consume(ctx, appstock.ConsumeRequest{
		Category:      "seed",
		LotCode:       "SEED-2026-A",
		Quantity:      decimal.NewFromInt(400),
		Unit:          "g",
		ReferenceType: "planting",
		ReferenceID:   "PLT-001",
	})
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	assert.True(t, result.Consumed.Equal(decimal.NewFromInt(400)))
	assert.True(t, result.Remaining.Equal(decimal.NewFromInt(100)))
	assert.False(t, result.Depleted)

	assert.Equal(t, older.ID, result.Transactions[0].StockEntryID)
	assert.True(t, result.Transactions[0].Quantity.Equal(decimal.NewFromInt(-300)))
	assert.True(t, result.Transactions[0].BalanceAfter.IsZero())
	assert.Equal(t, newer.ID, result.Transactions[1].StockEntryID)
	assert.True(t, result.Transactions[1].Quantity.Equal(decimal.NewFromInt(-100)))
	assert.True(t, result.Transactions[1].BalanceAfter.Equal(decimal.NewFromInt(100)))

	// The persisted entries reflect the deductions
	olderEntry, err := svc.entryRepo.FindByID(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, olderEntry.Available().IsZero())

	newerEntry, err := svc.entryRepo.FindByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.True(t, newerEntry.Available().Equal(decimal.NewFromInt(100)))

	// Write off half of what is left
	waste, err := svc.ledger.RecordWaste(ctx, newer.ID, appstock.WasteStockRequest{
		Quantity: decimal.NewFromInt(50),
		Unit:     "g",
		Reason:   "moisture damage",
	})
	require.NoError(t, err)
	assert.True(t, waste.BalanceAfter.Equal(decimal.NewFromInt(50)))

	// Coverage check without mutation
	canConsume, err := svc.consumption.CanConsume(ctx, lot, decimal.NewFromInt(200), stock.UnitGram)
	require.NoError(t, err)
	assert.False(t, canConsume.CanConsume)
	assert.True(t, canConsume.Available.Equal(decimal.NewFromInt(50)))

	// Replaying each entry's transactions must reproduce the recorded balances
	require.NoError(t, svc.ledger.VerifyLedger(ctx, older.ID))
	require.NoError(t, svc.ledger.VerifyLedger(ctx, newer.ID))

	// Full history: initial, consumption, waste
	history, err := svc.ledger.History(ctx, newer.ID, appstock.EntryHistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestConsumeInsufficientStock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newStockServices(testDB)
	ctx := context.Background()

	_, err := svc.ledger.ReceiveEntry(ctx, appstock.ReceiveEntryRequest{
		Category: "nutrient",
		LotCode:  "NUT-77",
		Unit:     "kg",
		Quantity: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	_, err = svc.consumption.Consume(ctx, appstock.ConsumeRequest{
		Category: "nutrient",
		LotCode:  "NUT-77",
		Quantity: decimal.NewFromInt(3),
		Unit:     "kg",
	})
	require.Error(t, err)

	var insufficientErr *stock.InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.True(t, insufficientErr.Requested.Equal(decimal.NewFromInt(3)))
	assert.True(t, insufficientErr.Available.Equal(decimal.NewFromInt(2)))

	// A failed consumption must leave no trace
	lot, err := stock.NewLot(stock.CategoryNutrient, "NUT-77")
	require.NoError(t, err)
	quantity, _, err := svc.consumption.Quantity(ctx, lot)
	require.NoError(t, err)
	assert.True(t, quantity.Equal(decimal.NewFromInt(2)))
}

func TestConsumeDepletesLot(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newStockServices(testDB)
	ctx := context.Background()

	entry, err := svc.ledger.ReceiveEntry(ctx, appstock.ReceiveEntryRequest{
		Category: "soil",
		LotCode:  "SOIL-05",
		Unit:     "kg",
		Quantity: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	result, err := svc.consumption.Consume(ctx, appstock.ConsumeRequest{
		Category: "soil",
		LotCode:  "SOIL-05",
		Quantity: decimal.NewFromInt(10),
		Unit:     "kg",
	})
	require.NoError(t, err)
	assert.True(t, result.Depleted)
	assert.True(t, result.Remaining.IsZero())

	depleted, err := svc.consumption.IsDepleted(ctx, stock.Lot{Category: stock.CategorySoil, Code: "SOIL-05"})
	require.NoError(t, err)
	assert.True(t, depleted)

	require.NoError(t, svc.ledger.VerifyLedger(ctx, entry.ID))
}

func TestInitializeLedgerIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newStockServices(testDB)
	ctx := context.Background()

	entry, err := svc.ledger.ReceiveEntry(ctx, appstock.ReceiveEntryRequest{
		Category: "packaging",
		LotCode:  "PKG-12",
		Unit:     "g",
		Quantity: decimal.NewFromInt(800),
	})
	require.NoError(t, err)

	// Receiving already seeded the ledger; initializing again must not
	// append a second transaction.
	first, err := svc.ledger.InitializeLedger(ctx, entry.ID)
	require.NoError(t, err)
	second, err := svc.ledger.InitializeLedger(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := svc.txRepo.CountByEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInitializeLedgerEmptyEntryNoOp(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newStockServices(testDB)
	ctx := context.Background()

	// A fully consumed legacy entry has no ledger rows and nothing to seed.
	lot, err := stock.NewLot(stock.CategoryNutrient, "NUT-EMPTY")
	require.NoError(t, err)
	entry, err := stock.NewStockEntry(lot, stock.UnitGram, decimal.NewFromInt(250))
	require.NoError(t, err)
	entry.ConsumedQuantity = decimal.NewFromInt(250)
	entry.ClearDomainEvents()
	require.NoError(t, svc.entryRepo.Save(ctx, entry))

	resp, err := svc.ledger.InitializeLedger(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, resp)

	count, err := svc.txRepo.CountByEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStockEntryOptimisticLocking(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	svc := newStockServices(testDB)
	ctx := context.Background()

	created, err := svc.ledger.ReceiveEntry(ctx, appstock.ReceiveEntryRequest{
		Category: "seed",
		LotCode:  "SEED-LOCK",
		Unit:     "g",
		Quantity: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// Two clients load the same version
	first, err := svc.entryRepo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := svc.entryRepo.FindByID(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, first.ApplyChange(decimal.NewFromInt(-10)))
	require.NoError(t, svc.entryRepo.SaveWithLock(ctx, first))

	// The stale copy must be rejected
	require.NoError(t, second.ApplyChange(decimal.NewFromInt(-10)))
	err = svc.entryRepo.SaveWithLock(ctx, second)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "OPTIMISTIC_LOCK_FAILED", domainErr.Code)
}

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}
