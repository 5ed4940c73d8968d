package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStockEntryRepository creates a GormStockEntryRepository with a mocked SQL connection
func newMockStockEntryRepository(t *testing.T) (*GormStockEntryRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockEntryRepository(gormDB), mock, mockDB
}

func entryRows(entryID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "category", "lot_code", "unit",
		"total_quantity", "consumed_quantity", "is_active", "version",
	}).AddRow(
		entryID, "seed", "ARG001", "g",
		decimal.NewFromInt(100), decimal.NewFromInt(30), true, 1,
	)
}

func TestGormStockEntryRepository_FindByID(t *testing.T) {
	t.Run("finds existing entry", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "stock_entries" WHERE id = \$1`).
			WithArgs(entryID, 1).
			WillReturnRows(entryRows(entryID))

		entry, err := repo.FindByID(context.Background(), entryID)
		require.NoError(t, err)
		assert.Equal(t, entryID, entry.ID)
		assert.Equal(t, stock.CategorySeed, entry.Category)
		assert.True(t, entry.Available().Equal(decimal.NewFromInt(70)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing entry", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "stock_entries"`).
			WithArgs(entryID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), entryID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormStockEntryRepository_FindActiveByLot(t *testing.T) {
	repo, mock, mockDB := newMockStockEntryRepository(t)
	defer mockDB.Close()

	lot, err := stock.NewLot(stock.CategorySeed, "ARG001")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "stock_entries" WHERE category = \$1 AND lot_code = \$2 AND is_active = \$3 ORDER BY created_at ASC, id ASC`).
		WithArgs("seed", "ARG001", true).
		WillReturnRows(entryRows(uuid.New()))

	entries, err := repo.FindActiveByLot(context.Background(), lot)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStockEntryRepository_FindActiveByLotForUpdate(t *testing.T) {
	repo, mock, mockDB := newMockStockEntryRepository(t)
	defer mockDB.Close()

	lot, err := stock.NewLot(stock.CategorySeed, "ARG001")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "stock_entries" WHERE category = \$1 AND lot_code = \$2 AND is_active = \$3 ORDER BY created_at ASC, id ASC FOR UPDATE`).
		WithArgs("seed", "ARG001", true).
		WillReturnRows(entryRows(uuid.New()))

	entries, err := repo.FindActiveByLotForUpdate(context.Background(), lot)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStockEntryRepository_SaveWithLock(t *testing.T) {
	newEntry := func(t *testing.T) *stock.StockEntry {
		t.Helper()
		lot, err := stock.NewLot(stock.CategorySeed, "ARG001")
		require.NoError(t, err)
		entry, err := stock.NewStockEntry(lot, stock.UnitGram, decimal.NewFromInt(100))
		require.NoError(t, err)
		require.NoError(t, entry.ApplyChange(decimal.NewFromInt(-10)))
		return entry
	}

	t.Run("updates when version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entry := newEntry(t)
		mock.ExpectExec(`UPDATE "stock_entries" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when version changed concurrently", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entry := newEntry(t)
		mock.ExpectExec(`UPDATE "stock_entries" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), entry)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_FAILED", domainErr.Code)
	})
}

func TestGormStockEntryRepository_CountByLot(t *testing.T) {
	repo, mock, mockDB := newMockStockEntryRepository(t)
	defer mockDB.Close()

	lot, err := stock.NewLot(stock.CategoryNutrient, "NPK-20")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_entries"`).
		WithArgs("nutrient", "NPK-20").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByLot(context.Background(), lot)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGormStockEntryRepository_ListLots(t *testing.T) {
	repo, mock, mockDB := newMockStockEntryRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT DISTINCT "lot_code" FROM "stock_entries"`).
		WithArgs("seed").
		WillReturnRows(sqlmock.NewRows([]string{"lot_code"}).AddRow("ARG001").AddRow("ARG002"))

	lots, err := repo.ListLots(context.Background(), stock.CategorySeed)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "ARG001", lots[0].Code)
	assert.Equal(t, stock.CategorySeed, lots[1].Category)
}
