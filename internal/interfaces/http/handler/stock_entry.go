package handler

import (
	stockapp "github.com/farmstock/backend/internal/application/stock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockEntryHandler handles stock entry and ledger API endpoints
type StockEntryHandler struct {
	BaseHandler
	ledgerService *stockapp.LedgerService
}

// NewStockEntryHandler creates a new StockEntryHandler
func NewStockEntryHandler(ledgerService *stockapp.LedgerService) *StockEntryHandler {
	return &StockEntryHandler{
		ledgerService: ledgerService,
	}
}

// parseEntryID parses the :id path parameter
func (h *StockEntryHandler) parseEntryID(c *gin.Context) (uuid.UUID, bool) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock entry ID format")
		return uuid.Nil, false
	}
	return entryID, true
}

// Receive godoc
// @ID           receiveStockEntry
// @Summary      Receive a stock entry
// @Description  Record a physical delivery of a consumable material into a lot
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body stockapp.ReceiveEntryRequest true "Delivery details"
// @Success      201 {object} APIResponse[stockapp.StockEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /stock/entries [post]
func (h *StockEntryHandler) Receive(c *gin.Context) {
	var req stockapp.ReceiveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if req.ActorID == nil {
		if actorID, err := getActorID(c); err == nil && actorID != uuid.Nil {
			req.ActorID = &actorID
		}
	}

	entry, err := h.ledgerService.ReceiveEntry(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// GetByID godoc
// @ID           getStockEntryById
// @Summary      Get stock entry by ID
// @Tags         stock
// @Produce      json
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Success      200 {object} APIResponse[stockapp.StockEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /stock/entries/{id} [get]
func (h *StockEntryHandler) GetByID(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	entry, err := h.ledgerService.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// Balance godoc
// @ID           getStockEntryBalance
// @Summary      Get entry balance
// @Description  Resolve the entry's current balance, ledger first with
// @Description  aggregate-field fallback for entries without transactions
// @Tags         stock
// @Produce      json
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Success      200 {object} APIResponse[QuantityData]
// @Failure      404 {object} ErrorResponse
// @Router       /stock/entries/{id}/balance [get]
func (h *StockEntryHandler) Balance(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	entry, err := h.ledgerService.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	balance, err := h.ledgerService.EntryBalance(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, QuantityData{
		Quantity: balance.String(),
		Unit:     entry.Unit,
	})
}

// History godoc
// @ID           getStockEntryHistory
// @Summary      Get entry transaction history
// @Description  List the entry's ledger transactions, newest first unless order=asc
// @Tags         stock
// @Produce      json
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Param        limit query int false "Maximum transactions to return" default(50)
// @Param        order query string false "Sort order" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]stockapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /stock/entries/{id}/transactions [get]
func (h *StockEntryHandler) History(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	var filter stockapp.EntryHistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transactions, err := h.ledgerService.History(c.Request.Context(), entryID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transactions)
}

// InitializeLedger godoc
// @ID           initializeStockEntryLedger
// @Summary      Initialize entry ledger
// @Description  Seed the transaction ledger from the entry's aggregate fields.
// @Description  Idempotent: an already-tracked entry returns its latest transaction.
// @Tags         stock
// @Produce      json
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Success      200 {object} APIResponse[stockapp.TransactionResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /stock/entries/{id}/ledger [post]
func (h *StockEntryHandler) InitializeLedger(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	tx, err := h.ledgerService.InitializeLedger(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tx)
}

// VerifyLedger godoc
// @ID           verifyStockEntryLedger
// @Summary      Verify entry ledger
// @Description  Replay the entry's transactions from zero and check every
// @Description  recorded running balance
// @Tags         stock
// @Produce      json
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Success      200 {object} APIResponse[ValidData]
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /stock/entries/{id}/ledger/verify [get]
func (h *StockEntryHandler) VerifyLedger(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	if err := h.ledgerService.VerifyLedger(c.Request.Context(), entryID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ValidData{Valid: true})
}

// AddStock godoc
// @ID           addStock
// @Summary      Add stock to an entry
// @Description  Record an addition (found stock, correction) against the entry
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Param        request body stockapp.AddStockRequest true "Addition details"
// @Success      200 {object} APIResponse[stockapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /stock/entries/{id}/add [post]
func (h *StockEntryHandler) AddStock(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	var req stockapp.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if req.ActorID == nil {
		if actorID, err := getActorID(c); err == nil && actorID != uuid.Nil {
			req.ActorID = &actorID
		}
	}

	tx, err := h.ledgerService.AddStock(c.Request.Context(), entryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tx)
}

// RecordWaste godoc
// @ID           recordWaste
// @Summary      Record waste against an entry
// @Description  Write off spilled or spoiled quantity with a reason
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Param        request body stockapp.WasteStockRequest true "Waste details"
// @Success      200 {object} APIResponse[stockapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /stock/entries/{id}/waste [post]
func (h *StockEntryHandler) RecordWaste(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	var req stockapp.WasteStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if req.ActorID == nil {
		if actorID, err := getActorID(c); err == nil && actorID != uuid.Nil {
			req.ActorID = &actorID
		}
	}

	tx, err := h.ledgerService.RecordWaste(c.Request.Context(), entryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tx)
}

// Deactivate godoc
// @ID           deactivateStockEntry
// @Summary      Deactivate a stock entry
// @Description  Hide the entry from lot aggregation and FIFO allocation
// @Tags         stock
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Success      204 "No Content"
// @Failure      404 {object} ErrorResponse
// @Router       /stock/entries/{id}/deactivate [post]
func (h *StockEntryHandler) Deactivate(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	if err := h.ledgerService.DeactivateEntry(c.Request.Context(), entryID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate godoc
// @ID           activateStockEntry
// @Summary      Activate a stock entry
// @Description  Make the entry visible to lot aggregation again
// @Tags         stock
// @Param        id path string true "Stock Entry ID" format(uuid)
// @Success      204 "No Content"
// @Failure      404 {object} ErrorResponse
// @Router       /stock/entries/{id}/activate [post]
func (h *StockEntryHandler) Activate(c *gin.Context) {
	entryID, ok := h.parseEntryID(c)
	if !ok {
		return
	}

	if err := h.ledgerService.ActivateEntry(c.Request.Context(), entryID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
