package handler

import (
	stockapp "github.com/farmstock/backend/internal/application/stock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/domain/stock"
	"github.com/farmstock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConsumptionHandler handles lot-level availability and FIFO consumption
// API endpoints
type ConsumptionHandler struct {
	BaseHandler
	consumptionService *stockapp.ConsumptionService
}

// NewConsumptionHandler creates a new ConsumptionHandler
func NewConsumptionHandler(consumptionService *stockapp.ConsumptionService) *ConsumptionHandler {
	return &ConsumptionHandler{
		consumptionService: consumptionService,
	}
}

// parseLot parses the :category/:code path parameters into a lot identifier
func (h *ConsumptionHandler) parseLot(c *gin.Context) (stock.Lot, bool) {
	lot, err := stock.NewLot(stock.ConsumableCategory(c.Param("category")), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return stock.Lot{}, false
	}
	return lot, true
}

// parseQuantityQuery parses quantity and unit query parameters
func (h *ConsumptionHandler) parseQuantityQuery(c *gin.Context) (decimal.Decimal, stock.MassUnit, bool) {
	quantity, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil {
		h.BadRequest(c, "Invalid quantity format")
		return decimal.Zero, "", false
	}
	unit := stock.MassUnit(c.DefaultQuery("unit", "g"))
	if !unit.IsValid() {
		h.BadRequest(c, "Unknown mass unit: "+unit.String())
		return decimal.Zero, "", false
	}
	return quantity, unit, true
}

// ListLots godoc
// @ID           listLots
// @Summary      List lots in a category
// @Description  Summarize every lot with at least one entry, including depleted lots
// @Tags         consumption
// @Produce      json
// @Param        category query string true "Consumable category" Enums(seed, soil, nutrient, packaging)
// @Success      200 {object} APIResponse[[]stockapp.LotSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /stock/lots [get]
func (h *ConsumptionHandler) ListLots(c *gin.Context) {
	category := stock.ConsumableCategory(c.Query("category"))

	lots, err := h.consumptionService.ListLots(c.Request.Context(), category)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lots)
}

// LotSummary godoc
// @ID           getLotSummary
// @Summary      Get lot summary
// @Description  Aggregate the lot's active entries into a single view
// @Tags         consumption
// @Produce      json
// @Param        category path string true "Consumable category" Enums(seed, soil, nutrient, packaging)
// @Param        code path string true "Lot code"
// @Success      200 {object} APIResponse[stockapp.LotSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /stock/lots/{category}/{code} [get]
func (h *ConsumptionHandler) LotSummary(c *gin.Context) {
	lot, ok := h.parseLot(c)
	if !ok {
		return
	}

	summary, err := h.consumptionService.LotSummary(c.Request.Context(), lot)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// LotEntries godoc
// @ID           listLotEntries
// @Summary      List a lot's entries
// @Description  List the lot's entries, active or not, with pagination
// @Tags         consumption
// @Produce      json
// @Param        category path string true "Consumable category" Enums(seed, soil, nutrient, packaging)
// @Param        code path string true "Lot code"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]stockapp.StockEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /stock/lots/{category}/{code}/entries [get]
func (h *ConsumptionHandler) LotEntries(c *gin.Context) {
	lot, ok := h.parseLot(c)
	if !ok {
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	filter.Page = listReq.Page
	filter.PageSize = listReq.PageSize
	if listReq.OrderBy != "" {
		filter.OrderBy = listReq.OrderBy
	}
	if listReq.OrderDir != "" {
		filter.OrderDir = listReq.OrderDir
	}

	entries, total, err := h.consumptionService.LotEntries(c.Request.Context(), lot, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// Quantity godoc
// @ID           getLotQuantity
// @Summary      Get lot quantity
// @Description  Total available quantity across the lot's active entries
// @Tags         consumption
// @Produce      json
// @Param        category path string true "Consumable category" Enums(seed, soil, nutrient, packaging)
// @Param        code path string true "Lot code"
// @Success      200 {object} APIResponse[QuantityData]
// @Failure      400 {object} ErrorResponse
// @Router       /stock/lots/{category}/{code}/quantity [get]
func (h *ConsumptionHandler) Quantity(c *gin.Context) {
	lot, ok := h.parseLot(c)
	if !ok {
		return
	}

	quantity, unit, err := h.consumptionService.Quantity(c.Request.Context(), lot)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, QuantityData{
		Quantity: quantity.String(),
		Unit:     unit.String(),
	})
}

// IsDepleted godoc
// @ID           getLotDepleted
// @Summary      Check lot depletion
// @Tags         consumption
// @Produce      json
// @Param        category path string true "Consumable category" Enums(seed, soil, nutrient, packaging)
// @Param        code path string true "Lot code"
// @Success      200 {object} APIResponse[DepletedData]
// @Failure      400 {object} ErrorResponse
// @Router       /stock/lots/{category}/{code}/depleted [get]
func (h *ConsumptionHandler) IsDepleted(c *gin.Context) {
	lot, ok := h.parseLot(c)
	if !ok {
		return
	}

	depleted, err := h.consumptionService.IsDepleted(c.Request.Context(), lot)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, DepletedData{Depleted: depleted})
}

// CanConsume godoc
// @ID           canConsumeFromLot
// @Summary      Check lot coverage
// @Description  Report whether the lot can cover the requested quantity.
// @Description  Read-only; concurrent consumers may still win the race.
// @Tags         consumption
// @Produce      json
// @Param        category path string true "Consumable category" Enums(seed, soil, nutrient, packaging)
// @Param        code path string true "Lot code"
// @Param        quantity query string true "Requested quantity"
// @Param        unit query string false "Mass unit" Enums(g, kg, oz, lb) default(g)
// @Success      200 {object} APIResponse[stockapp.CanConsumeResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /stock/lots/{category}/{code}/can-consume [get]
func (h *ConsumptionHandler) CanConsume(c *gin.Context) {
	lot, ok := h.parseLot(c)
	if !ok {
		return
	}

	quantity, unit, ok := h.parseQuantityQuery(c)
	if !ok {
		return
	}

	result, err := h.consumptionService.CanConsume(c.Request.Context(), lot, quantity, unit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Plan godoc
// @ID           planConsumption
// @Summary      Plan a FIFO consumption
// @Description  Compute the oldest-first allocation for a requested quantity
// @Description  without executing it. Under-covering plans report their shortfall.
// @Tags         consumption
// @Produce      json
// @Param        category path string true "Consumable category" Enums(seed, soil, nutrient, packaging)
// @Param        code path string true "Lot code"
// @Param        quantity query string true "Requested quantity"
// @Param        unit query string false "Mass unit" Enums(g, kg, oz, lb) default(g)
// @Success      200 {object} APIResponse[stockapp.ConsumptionPlanResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /stock/lots/{category}/{code}/plan [get]
func (h *ConsumptionHandler) Plan(c *gin.Context) {
	lot, ok := h.parseLot(c)
	if !ok {
		return
	}

	quantity, unit, ok := h.parseQuantityQuery(c)
	if !ok {
		return
	}

	plan, err := h.consumptionService.PlanConsumption(c.Request.Context(), lot, quantity, unit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}

// Consume godoc
// @ID           consumeFromLot
// @Summary      Consume from a lot
// @Description  Execute an atomic FIFO consumption. Either the full quantity
// @Description  is drawn, oldest entries first, or nothing is persisted.
// @Tags         consumption
// @Accept       json
// @Produce      json
// @Param        request body stockapp.ConsumeRequest true "Consumption details"
// @Success      200 {object} APIResponse[stockapp.ConsumeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /stock/consume [post]
func (h *ConsumptionHandler) Consume(c *gin.Context) {
	var req stockapp.ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if req.ActorID == nil {
		if actorID, err := getActorID(c); err == nil && actorID != uuid.Nil {
			req.ActorID = &actorID
		}
	}

	result, err := h.consumptionService.Consume(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
