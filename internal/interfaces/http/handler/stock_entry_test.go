package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stockapp "github.com/farmstock/backend/internal/application/stock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStockEntryRepository implements stock.StockEntryRepository for testing
type MockStockEntryRepository struct {
	mock.Mock
}

func (m *MockStockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) FindActiveByLot(ctx context.Context, lot stock.Lot) ([]stock.StockEntry, error) {
	args := m.Called(ctx, lot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) FindActiveByLotForUpdate(ctx context.Context, lot stock.Lot) ([]stock.StockEntry, error) {
	args := m.Called(ctx, lot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) FindByLot(ctx context.Context, lot stock.Lot, filter shared.Filter) ([]stock.StockEntry, error) {
	args := m.Called(ctx, lot, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) FindByCategory(ctx context.Context, category stock.ConsumableCategory, filter shared.Filter) ([]stock.StockEntry, error) {
	args := m.Called(ctx, category, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) ListLots(ctx context.Context, category stock.ConsumableCategory) ([]stock.Lot, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.Lot), args.Error(1)
}

func (m *MockStockEntryRepository) Save(ctx context.Context, entry *stock.StockEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStockEntryRepository) SaveWithLock(ctx context.Context, entry *stock.StockEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStockEntryRepository) CountByLot(ctx context.Context, lot stock.Lot) (int64, error) {
	args := m.Called(ctx, lot)
	return args.Get(0).(int64), args.Error(1)
}

// MockStockTransactionRepository implements stock.StockTransactionRepository for testing
type MockStockTransactionRepository struct {
	mock.Mock
}

func (m *MockStockTransactionRepository) Create(ctx context.Context, tx *stock.StockTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockStockTransactionRepository) CreateBatch(ctx context.Context, txs []*stock.StockTransaction) error {
	args := m.Called(ctx, txs)
	return args.Error(0)
}

func (m *MockStockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockTransaction), args.Error(1)
}

func (m *MockStockTransactionRepository) FindByEntry(ctx context.Context, entryID uuid.UUID) ([]stock.StockTransaction, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockTransaction), args.Error(1)
}

func (m *MockStockTransactionRepository) FindRecentByEntry(ctx context.Context, entryID uuid.UUID, limit int) ([]stock.StockTransaction, error) {
	args := m.Called(ctx, entryID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockTransaction), args.Error(1)
}

func (m *MockStockTransactionRepository) FindLatestByEntry(ctx context.Context, entryID uuid.UUID) (*stock.StockTransaction, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockTransaction), args.Error(1)
}

func (m *MockStockTransactionRepository) HasTransactions(ctx context.Context, entryID uuid.UUID) (bool, error) {
	args := m.Called(ctx, entryID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockTransactionRepository) CountByEntry(ctx context.Context, entryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, entryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockTransactionRepository) FindByReference(ctx context.Context, refType, refID string) ([]stock.StockTransaction, error) {
	args := m.Called(ctx, refType, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockTransaction), args.Error(1)
}

// newTestEntry builds an active seed entry with the given quantities
func newTestEntry(t *testing.T, lotCode string, total, consumed int64) *stock.StockEntry {
	t.Helper()
	lot, err := stock.NewLot(stock.CategorySeed, lotCode)
	require.NoError(t, err)
	entry, err := stock.NewStockEntry(lot, stock.UnitGram, decimal.NewFromInt(total))
	require.NoError(t, err)
	entry.ConsumedQuantity = decimal.NewFromInt(consumed)
	entry.CreatedAt = time.Now().Add(-time.Hour)
	entry.ClearDomainEvents()
	return entry
}

func setupStockEntryRouter(entryRepo *MockStockEntryRepository, txRepo *MockStockTransactionRepository) *gin.Engine {
	scope := stockapp.NewNoOpTransactionScope(entryRepo, txRepo)
	service := stockapp.NewLedgerService(entryRepo, txRepo, scope)
	h := NewStockEntryHandler(service)

	engine := gin.New()
	engine.POST("/stock/entries", h.Receive)
	engine.GET("/stock/entries/:id", h.GetByID)
	engine.GET("/stock/entries/:id/balance", h.Balance)
	engine.GET("/stock/entries/:id/transactions", h.History)
	engine.POST("/stock/entries/:id/ledger", h.InitializeLedger)
	engine.GET("/stock/entries/:id/ledger/verify", h.VerifyLedger)
	engine.POST("/stock/entries/:id/add", h.AddStock)
	engine.POST("/stock/entries/:id/waste", h.RecordWaste)
	engine.POST("/stock/entries/:id/deactivate", h.Deactivate)
	engine.POST("/stock/entries/:id/activate", h.Activate)
	return engine
}

func TestStockEntryHandlerReceive(t *testing.T) {
	t.Run("creates entry and seeds ledger", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entryRepo.On("FindActiveByLot", mock.Anything, mock.Anything).Return([]stock.StockEntry{}, nil)
		entryRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		txRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		body, _ := json.Marshal(map[string]any{
			"category": "seed",
			"lot_code": "TOM-2026-A",
			"unit":     "g",
			"quantity": "500",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Success bool                        `json:"success"`
			Data    stockapp.StockEntryResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "seed", resp.Data.Category)
		assert.Equal(t, "TOM-2026-A", resp.Data.LotCode)
		assert.True(t, resp.Data.TotalQuantity.Equal(decimal.NewFromInt(500)))
		entryRepo.AssertExpectations(t)
		txRepo.AssertExpectations(t)
	})

	t.Run("attributes actor from header when body omits it", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		actorID := uuid.New()
		entryRepo.On("FindActiveByLot", mock.Anything, mock.Anything).Return([]stock.StockEntry{}, nil)
		entryRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *stock.StockTransaction) bool {
			return tx.ActorID != nil && *tx.ActorID == actorID
		})).Return(nil)

		body, _ := json.Marshal(map[string]any{
			"category": "nutrient",
			"lot_code": "NPK-2026-03",
			"unit":     "kg",
			"quantity": "25",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Actor-ID", actorID.String())
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		txRepo.AssertExpectations(t)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		body, _ := json.Marshal(map[string]any{
			"category": "fertilizer",
			"lot_code": "X-1",
			"unit":     "g",
			"quantity": "10",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStockEntryHandlerGetByID(t *testing.T) {
	t.Run("returns entry", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 100)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stock/entries/"+entry.ID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data stockapp.StockEntryResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Available.Equal(decimal.NewFromInt(400)))
	})

	t.Run("404 when entry missing", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entryRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stock/entries/"+uuid.New().String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("400 on malformed ID", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stock/entries/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStockEntryHandlerBalance(t *testing.T) {
	t.Run("prefers latest ledger balance", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 100)
		latest, err := stock.NewStockTransaction(entry.ID, stock.TransactionTypeConsumption,
			decimal.NewFromInt(-50), decimal.NewFromInt(350))
		require.NoError(t, err)

		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		txRepo.On("FindLatestByEntry", mock.Anything, entry.ID).Return(latest, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stock/entries/"+entry.ID.String()+"/balance", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data QuantityData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "350", resp.Data.Quantity)
		assert.Equal(t, "g", resp.Data.Unit)
	})

	t.Run("falls back to aggregate fields for unseeded ledger", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 100)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		txRepo.On("FindLatestByEntry", mock.Anything, entry.ID).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stock/entries/"+entry.ID.String()+"/balance", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data QuantityData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "400", resp.Data.Quantity)
	})
}

func TestStockEntryHandlerHistory(t *testing.T) {
	entryRepo := new(MockStockEntryRepository)
	txRepo := new(MockStockTransactionRepository)
	router := setupStockEntryRouter(entryRepo, txRepo)

	entry := newTestEntry(t, "TOM-2026-A", 500, 0)
	tx1, err := stock.NewStockTransaction(entry.ID, stock.TransactionTypeInitial,
		decimal.NewFromInt(500), decimal.NewFromInt(500))
	require.NoError(t, err)

	entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
	txRepo.On("FindRecentByEntry", mock.Anything, entry.ID, stockapp.DefaultHistoryLimit).
		Return([]stock.StockTransaction{*tx1}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/stock/entries/"+entry.ID.String()+"/transactions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []stockapp.TransactionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "initial", resp.Data[0].Type)
	txRepo.AssertExpectations(t)
}

func TestStockEntryHandlerHistoryAscending(t *testing.T) {
	entryRepo := new(MockStockEntryRepository)
	txRepo := new(MockStockTransactionRepository)
	router := setupStockEntryRouter(entryRepo, txRepo)

	entry := newTestEntry(t, "TOM-2026-A", 500, 0)
	tx1, err := stock.NewStockTransaction(entry.ID, stock.TransactionTypeInitial,
		decimal.NewFromInt(500), decimal.NewFromInt(500))
	require.NoError(t, err)
	tx2, err := stock.NewStockTransaction(entry.ID, stock.TransactionTypeWaste,
		decimal.NewFromInt(-20), decimal.NewFromInt(480))
	require.NoError(t, err)

	entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
	txRepo.On("FindByEntry", mock.Anything, entry.ID).
		Return([]stock.StockTransaction{*tx1, *tx2}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET",
		"/stock/entries/"+entry.ID.String()+"/transactions?order=asc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []stockapp.TransactionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "initial", resp.Data[0].Type)
	assert.Equal(t, "waste", resp.Data[1].Type)
	txRepo.AssertNotCalled(t, "FindRecentByEntry", mock.Anything, mock.Anything, mock.Anything)
}

func TestStockEntryHandlerInitializeLedger(t *testing.T) {
	t.Run("seeds ledger from aggregate fields", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 100)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		txRepo.On("FindLatestByEntry", mock.Anything, entry.ID).Return(nil, shared.ErrNotFound)
		txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *stock.StockTransaction) bool {
			return tx.BalanceAfter.Equal(decimal.NewFromInt(400))
		})).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries/"+entry.ID.String()+"/ledger", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		txRepo.AssertExpectations(t)
	})

	t.Run("no-op when entry has nothing to seed", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 500)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		txRepo.On("FindLatestByEntry", mock.Anything, entry.ID).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries/"+entry.ID.String()+"/ledger", nil)
		router.ServeHTTP(w, req)

		// Nothing written, nothing returned
		assert.Equal(t, http.StatusOK, w.Code)
		txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestStockEntryHandlerVerifyLedger(t *testing.T) {
	t.Run("valid ledger", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entryID := uuid.New()
		tx1, err := stock.NewStockTransaction(entryID, stock.TransactionTypeInitial,
			decimal.NewFromInt(500), decimal.NewFromInt(500))
		require.NoError(t, err)
		tx2, err := stock.NewStockTransaction(entryID, stock.TransactionTypeConsumption,
			decimal.NewFromInt(-200), decimal.NewFromInt(300))
		require.NoError(t, err)

		txRepo.On("FindByEntry", mock.Anything, entryID).
			Return([]stock.StockTransaction{*tx1, *tx2}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stock/entries/"+entryID.String()+"/ledger/verify", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data ValidData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Valid)
	})

	t.Run("corrupt ledger maps to 500", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entryID := uuid.New()
		tx1, err := stock.NewStockTransaction(entryID, stock.TransactionTypeInitial,
			decimal.NewFromInt(500), decimal.NewFromInt(500))
		require.NoError(t, err)
		// Running balance does not match the recorded balance_after
		tx2, err := stock.NewStockTransaction(entryID, stock.TransactionTypeConsumption,
			decimal.NewFromInt(-200), decimal.NewFromInt(250))
		require.NoError(t, err)

		txRepo.On("FindByEntry", mock.Anything, entryID).
			Return([]stock.StockTransaction{*tx1, *tx2}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stock/entries/"+entryID.String()+"/ledger/verify", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_LEDGER_CORRUPT")
	})
}

func TestStockEntryHandlerAddStock(t *testing.T) {
	entryRepo := new(MockStockEntryRepository)
	txRepo := new(MockStockTransactionRepository)
	router := setupStockEntryRouter(entryRepo, txRepo)

	entry := newTestEntry(t, "TOM-2026-A", 500, 100)
	entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
	txRepo.On("FindLatestByEntry", mock.Anything, entry.ID).Return(nil, shared.ErrNotFound)
	entryRepo.On("SaveWithLock", mock.Anything, entry).Return(nil)
	txRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	// 1 kg converts to 1000 g on top of the 400 g fallback balance
	body, _ := json.Marshal(map[string]any{"quantity": "1", "unit": "kg"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/stock/entries/"+entry.ID.String()+"/add", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data stockapp.TransactionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Quantity.Equal(decimal.NewFromInt(1000)))
	assert.True(t, resp.Data.BalanceAfter.Equal(decimal.NewFromInt(1400)))
}

func TestStockEntryHandlerRecordWaste(t *testing.T) {
	t.Run("writes off quantity with reason", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 100)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		txRepo.On("FindLatestByEntry", mock.Anything, entry.ID).Return(nil, shared.ErrNotFound)
		entryRepo.On("SaveWithLock", mock.Anything, entry).Return(nil)
		txRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		body, _ := json.Marshal(map[string]any{"quantity": "50", "unit": "g", "reason": "spilled during transfer"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries/"+entry.ID.String()+"/waste", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data stockapp.TransactionResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Quantity.Equal(decimal.NewFromInt(-50)))
		assert.True(t, resp.Data.BalanceAfter.Equal(decimal.NewFromInt(350)))
	})

	t.Run("422 when waste exceeds balance", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 450)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		txRepo.On("FindLatestByEntry", mock.Anything, entry.ID).Return(nil, shared.ErrNotFound)

		body, _ := json.Marshal(map[string]any{"quantity": "100", "unit": "g", "reason": "spoiled"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries/"+entry.ID.String()+"/waste", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INSUFFICIENT_STOCK")
	})

	t.Run("400 when reason missing", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		body, _ := json.Marshal(map[string]any{"quantity": "100", "unit": "g"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries/"+uuid.New().String()+"/waste", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStockEntryHandlerActivation(t *testing.T) {
	t.Run("deactivate returns 204", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 0)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		entryRepo.On("SaveWithLock", mock.Anything, entry).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries/"+entry.ID.String()+"/deactivate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, entry.IsActive)
	})

	t.Run("activate is idempotent for active entries", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 0)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries/"+entry.ID.String()+"/activate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		entryRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("conflict on concurrent modification", func(t *testing.T) {
		entryRepo := new(MockStockEntryRepository)
		txRepo := new(MockStockTransactionRepository)
		router := setupStockEntryRouter(entryRepo, txRepo)

		entry := newTestEntry(t, "TOM-2026-A", 500, 0)
		entryRepo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
		entryRepo.On("SaveWithLock", mock.Anything, entry).
			Return(shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Entry was modified concurrently"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/stock/entries/"+entry.ID.String()+"/deactivate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
