package handler

import (
	"net/http"

	"inventory-portal/internal/middleware"
	"inventory-portal/internal/repository"
	"inventory-portal/internal/service"
	"inventory-portal/pkg/pagination"
	"inventory-portal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	stockService service.StockService
	notifier     service.MetricsNotifier
}

func NewStockHandler(stockService service.StockService, notifier service.MetricsNotifier) *StockHandler {
	if notifier == nil {
		notifier = service.NewNoopMetricsNotifier()
	}
	return &StockHandler{stockService: stockService, notifier: notifier}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	stock.Use(middleware.RequireAuth())
	{
		stock.POST("/increase", h.IncreaseStock)
		stock.POST("/decrease", h.DecreaseStock)
		stock.POST("/transfer", h.TransferStock)
		stock.POST("/adjust", h.AdjustStock)

		stock.GET("/balance", h.GetBalance)
		stock.GET("/balances/product/:id", h.ListBalancesByProduct)
		stock.GET("/balances/warehouse/:id", h.ListBalancesByWarehouse)
		stock.GET("/movements", h.ListMovements)
		stock.GET("/batches/product/:id", h.ListBatchesByProduct)
		stock.GET("/serials/product/:id", h.ListSerialsByProduct)
	}
}

// IncreaseStock records an inbound movement directly, without approval
// @Summary      Increase stock
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.IncreaseStockInput  true  "Operation"
// @Success      200   {object}  response.Response{data=service.StockOperationResult}
// @Router       /api/stock/increase [post]
func (h *StockHandler) IncreaseStock(c *gin.Context) {
	var in service.IncreaseStockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	if actor, ok := middleware.ActorID(c); ok {
		in.ActorID = &actor
	}

	result, err := h.stockService.IncreaseStock(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.NotifyStockChanged([]service.StockChange{{ProductID: in.ProductID, WarehouseID: in.WarehouseID}})
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DecreaseStock records an outbound movement directly, without approval
// @Summary      Decrease stock
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.DecreaseStockInput  true  "Operation"
// @Success      200   {object}  response.Response{data=service.StockOperationResult}
// @Router       /api/stock/decrease [post]
func (h *StockHandler) DecreaseStock(c *gin.Context) {
	var in service.DecreaseStockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	if actor, ok := middleware.ActorID(c); ok {
		in.ActorID = &actor
	}

	result, err := h.stockService.DecreaseStock(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.NotifyStockChanged([]service.StockChange{{ProductID: in.ProductID, WarehouseID: in.WarehouseID}})
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// TransferStock moves quantity between warehouses as one atomic pair
// @Summary      Transfer stock
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.TransferStockInput  true  "Operation"
// @Success      200   {object}  response.Response{data=service.TransferResult}
// @Router       /api/stock/transfer [post]
func (h *StockHandler) TransferStock(c *gin.Context) {
	var in service.TransferStockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	if actor, ok := middleware.ActorID(c); ok {
		in.ActorID = &actor
	}

	result, err := h.stockService.TransferStock(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.NotifyStockChanged([]service.StockChange{
		{ProductID: in.ProductID, WarehouseID: in.FromWarehouseID},
		{ProductID: in.ProductID, WarehouseID: in.ToWarehouseID},
	})
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AdjustStock corrects a balance by increase, decrease or set
// @Summary      Adjust stock
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.AdjustStockInput  true  "Operation"
// @Success      200   {object}  response.Response{data=service.StockOperationResult}
// @Router       /api/stock/adjust [post]
func (h *StockHandler) AdjustStock(c *gin.Context) {
	var in service.AdjustStockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	if actor, ok := middleware.ActorID(c); ok {
		in.ActorID = &actor
	}

	result, err := h.stockService.AdjustStock(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.NotifyStockChanged([]service.StockChange{{ProductID: in.ProductID, WarehouseID: in.WarehouseID}})
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetBalance returns one balance key; missing keys read as zero
// @Summary      Get stock balance
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        product_id    query     string  true   "Product id"
// @Param        warehouse_id  query     string  true   "Warehouse id"
// @Param        batch_id      query     string  false  "Batch id"
// @Success      200           {object}  response.Response{data=model.StockBalance}
// @Router       /api/stock/balance [get]
func (h *StockHandler) GetBalance(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product_id"))
		return
	}
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid warehouse_id"))
		return
	}
	var batchID *uuid.UUID
	if raw := c.Query("batch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid batch_id"))
			return
		}
		batchID = &id
	}

	balance, err := h.stockService.GetBalance(c.Request.Context(), productID, warehouseID, batchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, balance))
}

// ListBalancesByProduct returns all balances of one product across warehouses
func (h *StockHandler) ListBalancesByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	balances, err := h.stockService.ListBalancesByProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, balances))
}

// ListBalancesByWarehouse returns paginated balances held in one warehouse
func (h *StockHandler) ListBalancesByWarehouse(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid warehouse id"))
		return
	}
	params := pagination.Parse(c)

	balances, total, err := h.stockService.ListBalancesByWarehouse(c.Request.Context(), warehouseID, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"balances": balances,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// ListBatchesByProduct returns the batch registry of one product
func (h *StockHandler) ListBatchesByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	batches, err := h.stockService.ListBatchesByProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, batches))
}

// ListSerialsByProduct returns paginated serial units, optionally by status
func (h *StockHandler) ListSerialsByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}
	params := pagination.Parse(c)

	serials, total, err := h.stockService.ListSerialsByProduct(c.Request.Context(), productID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"serials": serials,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// ListMovements returns the paginated movement ledger, newest first
// @Summary      List stock movements
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        product_id    query     string  false  "Filter by product"
// @Param        warehouse_id  query     string  false  "Filter by warehouse"
// @Param        direction     query     string  false  "Filter by direction"
// @Param        ref_kind      query     string  false  "Filter by reference kind"
// @Success      200           {object}  response.Response{data=object}
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter repository.MovementFilter
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product_id"))
			return
		}
		filter.ProductID = &id
	}
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid warehouse_id"))
			return
		}
		filter.WarehouseID = &id
	}
	if raw := c.Query("batch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid batch_id"))
			return
		}
		filter.BatchID = &id
	}
	filter.Direction = c.Query("direction")
	filter.RefKind = c.Query("ref_kind")
	params := pagination.Parse(c)

	movements, total, err := h.stockService.ListMovements(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}
