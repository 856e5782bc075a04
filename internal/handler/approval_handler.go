package handler

import (
	"context"
	"net/http"

	"inventory-portal/internal/middleware"
	"inventory-portal/internal/service"
	"inventory-portal/pkg/pagination"
	"inventory-portal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	approvals.Use(middleware.RequireAuth())
	{
		approvals.POST("/purchase-receives", h.SubmitPurchaseReceive)
		approvals.POST("/sales", h.SubmitSale)
		approvals.POST("/adjustments", h.SubmitAdjustment)
		approvals.POST("/transfers", h.SubmitTransfer)

		approvals.GET("", h.ListRequests)
		approvals.GET("/required", h.CheckRequired)
		approvals.GET("/:id", h.GetRequest)
		approvals.PUT("/:id/approve", h.ApproveRequest)
		approvals.PUT("/:id/reject", h.RejectRequest)
		approvals.PUT("/:id/cancel", h.CancelRequest)
	}
}

type reviewDTO struct {
	Comment string `json:"comment"`
}

// SubmitPurchaseReceive stages an inbound purchase pending approval
// @Summary      Submit purchase receive
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.SubmitPurchaseReceiveInput  true  "Request"
// @Success      201   {object}  response.Response{data=service.SubmitResult}
// @Router       /api/approvals/purchase-receives [post]
func (h *ApprovalHandler) SubmitPurchaseReceive(c *gin.Context) {
	var in service.SubmitPurchaseReceiveInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unknown caller identity"))
		return
	}
	in.RequestedBy = actor

	result, err := h.approvalService.SubmitPurchaseReceive(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// SubmitSale stages an outbound sale pending approval
// @Summary      Submit sale
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.SubmitSaleInput  true  "Request"
// @Success      201   {object}  response.Response{data=service.SubmitResult}
// @Router       /api/approvals/sales [post]
func (h *ApprovalHandler) SubmitSale(c *gin.Context) {
	var in service.SubmitSaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unknown caller identity"))
		return
	}
	in.RequestedBy = actor

	result, err := h.approvalService.SubmitSale(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// SubmitAdjustment stages a balance correction pending approval
// @Summary      Submit adjustment
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.SubmitAdjustmentInput  true  "Request"
// @Success      201   {object}  response.Response{data=service.SubmitResult}
// @Router       /api/approvals/adjustments [post]
func (h *ApprovalHandler) SubmitAdjustment(c *gin.Context) {
	var in service.SubmitAdjustmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unknown caller identity"))
		return
	}
	in.RequestedBy = actor

	result, err := h.approvalService.SubmitAdjustment(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// SubmitTransfer stages a warehouse transfer pending approval
// @Summary      Submit transfer
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.SubmitTransferInput  true  "Request"
// @Success      201   {object}  response.Response{data=service.SubmitResult}
// @Router       /api/approvals/transfers [post]
func (h *ApprovalHandler) SubmitTransfer(c *gin.Context) {
	var in service.SubmitTransferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}
	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unknown caller identity"))
		return
	}
	in.RequestedBy = actor

	result, err := h.approvalService.SubmitTransfer(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests returns approval requests, optionally filtered by status and
// entity type
func (h *ApprovalHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	requests, total, err := h.approvalService.ListRequests(c.Request.Context(), c.Query("status"), c.Query("entity_type"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// CheckRequired reports whether an operation of the given type and amount
// must go through approval
func (h *ApprovalHandler) CheckRequired(c *gin.Context) {
	entityType := c.Query("entity_type")
	amount := decimal.Zero
	if raw := c.Query("amount"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid amount"))
			return
		}
		amount = parsed
	}
	var warehouseID *uuid.UUID
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid warehouse_id"))
			return
		}
		warehouseID = &id
	}

	required, err := h.approvalService.IsApprovalRequired(c.Request.Context(), entityType, amount, warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"required": required}))
}

// GetRequest returns one approval request
func (h *ApprovalHandler) GetRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request id"))
		return
	}

	request, err := h.approvalService.GetRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// ApproveRequest approves a pending request and executes the staged operation
// @Summary      Approve request
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string     true   "Request id"
// @Param        body  body      reviewDTO  false  "Review comment"
// @Success      200   {object}  response.Response{data=service.DecisionResult}
// @Router       /api/approvals/{id}/approve [put]
func (h *ApprovalHandler) ApproveRequest(c *gin.Context) {
	h.decide(c, h.approvalService.ApproveRequest)
}

// RejectRequest closes a pending request without executing it
func (h *ApprovalHandler) RejectRequest(c *gin.Context) {
	h.decide(c, h.approvalService.RejectRequest)
}

// CancelRequest withdraws a pending request; requester only
func (h *ApprovalHandler) CancelRequest(c *gin.Context) {
	h.decide(c, h.approvalService.CancelRequest)
}

func (h *ApprovalHandler) decide(c *gin.Context, fn func(ctx context.Context, requestID, actorID uuid.UUID, comment string) (*service.DecisionResult, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request id"))
		return
	}
	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unknown caller identity"))
		return
	}

	var review reviewDTO
	if err := c.ShouldBindJSON(&review); err != nil {
		// Empty body is fine, the comment is optional
		review.Comment = ""
	}

	result, err := fn(c.Request.Context(), id, actor, review.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
