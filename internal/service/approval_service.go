package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-portal/internal/model"
	"inventory-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PurchaseReceiveItemInput is one line of a staged purchase receive.
type PurchaseReceiveItemInput struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID   uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	BatchNumber   string          `json:"batch_number"`
	MfgDate       *time.Time      `json:"mfg_date"`
	ExpiryDate    *time.Time      `json:"expiry_date"`
	SerialNumbers []string        `json:"serial_numbers"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
}

type SubmitPurchaseReceiveInput struct {
	SupplierRef    string                     `json:"supplier_ref"`
	Note           string                     `json:"note"`
	RequestedBy    uuid.UUID                  `json:"requested_by"`
	RequestComment string                     `json:"request_comment"`
	Items          []PurchaseReceiveItemInput `json:"items" binding:"required"`
}

type SaleItemInput struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID   uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	BatchID       *uuid.UUID      `json:"batch_id"`
	SerialNumbers []string        `json:"serial_numbers"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type SubmitSaleInput struct {
	CustomerRef    string          `json:"customer_ref"`
	Note           string          `json:"note"`
	RequestedBy    uuid.UUID       `json:"requested_by"`
	RequestComment string          `json:"request_comment"`
	Items          []SaleItemInput `json:"items" binding:"required"`
}

type SubmitAdjustmentInput struct {
	ProductID      uuid.UUID        `json:"product_id" binding:"required"`
	WarehouseID    uuid.UUID        `json:"warehouse_id" binding:"required"`
	BatchID        *uuid.UUID       `json:"batch_id"`
	Method         string           `json:"method" binding:"required"`
	Reason         string           `json:"reason" binding:"required"`
	Quantity       *decimal.Decimal `json:"quantity"`
	NewQuantity    *decimal.Decimal `json:"new_quantity"`
	RequestedBy    uuid.UUID        `json:"requested_by"`
	RequestComment string           `json:"request_comment"`
}

type SubmitTransferInput struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id" binding:"required"`
	BatchID         *uuid.UUID      `json:"batch_id"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	SerialNumbers   []string        `json:"serial_numbers"`
	Note            string          `json:"note"`
	RequestedBy     uuid.UUID       `json:"requested_by"`
	RequestComment  string          `json:"request_comment"`
}

// SubmitResult reports the staged entity and its approval request.
type SubmitResult struct {
	EntityID  uuid.UUID `json:"entity_id"`
	RequestID uuid.UUID `json:"request_id"`
	Number    string    `json:"number,omitempty"`
}

// DecisionResult reports one review attempt. Executed is true only for the
// single call that actually transitioned the request and ran side effects;
// repeated or racing calls see Executed false with no error.
type DecisionResult struct {
	RequestID uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
	Executed  bool      `json:"executed"`
}

// ApprovalService owns the deferred-operation workflow: staging entities are
// created together with a PENDING approval request, and the approved stock
// operation executes exactly once regardless of concurrent reviewers.
type ApprovalService interface {
	SubmitPurchaseReceive(ctx context.Context, in SubmitPurchaseReceiveInput) (*SubmitResult, error)
	SubmitSale(ctx context.Context, in SubmitSaleInput) (*SubmitResult, error)
	SubmitAdjustment(ctx context.Context, in SubmitAdjustmentInput) (*SubmitResult, error)
	SubmitTransfer(ctx context.Context, in SubmitTransferInput) (*SubmitResult, error)

	RequestApproval(ctx context.Context, entityType string, entityID uuid.UUID, requestedBy uuid.UUID, comment string) (*model.ApprovalRequest, error)
	ApproveRequest(ctx context.Context, requestID, reviewerID uuid.UUID, comment string) (*DecisionResult, error)
	RejectRequest(ctx context.Context, requestID, reviewerID uuid.UUID, comment string) (*DecisionResult, error)
	CancelRequest(ctx context.Context, requestID, requesterID uuid.UUID, comment string) (*DecisionResult, error)

	IsApprovalRequired(ctx context.Context, entityType string, amount decimal.Decimal, warehouseID *uuid.UUID) (bool, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*model.ApprovalRequest, error)
	ListRequests(ctx context.Context, status, entityType string, page, limit int) ([]model.ApprovalRequest, int64, error)
}

type approvalService struct {
	approvalRepo   repository.ApprovalRepository
	purchaseRepo   repository.PurchaseReceiveRepository
	saleRepo       repository.SaleRepository
	adjustmentRepo repository.AdjustmentRepository
	transferRepo   repository.TransferRepository
	rulesRepo      repository.RulesRepository
	auditRepo      repository.AuditRepository
	stockService   StockService
	txManager      repository.TransactionManager
	notifier       MetricsNotifier
	logger         *zap.Logger
}

func NewApprovalService(
	approvalRepo repository.ApprovalRepository,
	purchaseRepo repository.PurchaseReceiveRepository,
	saleRepo repository.SaleRepository,
	adjustmentRepo repository.AdjustmentRepository,
	transferRepo repository.TransferRepository,
	rulesRepo repository.RulesRepository,
	auditRepo repository.AuditRepository,
	stockService StockService,
	txManager repository.TransactionManager,
	notifier MetricsNotifier,
	logger *zap.Logger,
) ApprovalService {
	if notifier == nil {
		notifier = NewNoopMetricsNotifier()
	}
	return &approvalService{
		approvalRepo:   approvalRepo,
		purchaseRepo:   purchaseRepo,
		saleRepo:       saleRepo,
		adjustmentRepo: adjustmentRepo,
		transferRepo:   transferRepo,
		rulesRepo:      rulesRepo,
		auditRepo:      auditRepo,
		stockService:   stockService,
		txManager:      txManager,
		notifier:       notifier,
		logger:         logger,
	}
}

// --- Submission ---

func (s *approvalService) SubmitPurchaseReceive(ctx context.Context, in SubmitPurchaseReceiveInput) (*SubmitResult, error) {
	if len(in.Items) == 0 {
		return nil, newValidationError("items", "at least one item is required")
	}
	for _, item := range in.Items {
		if !item.Quantity.IsPositive() {
			return nil, newValidationError("items.quantity", "quantity must be greater than zero")
		}
	}

	request := &model.PurchaseReceiveRequest{
		Number:      deriveReferenceNumber("PR", uuid.New()),
		SupplierRef: in.SupplierRef,
		Status:      model.StagingPendingApproval,
		Note:        in.Note,
		RequestedBy: in.RequestedBy,
	}
	for _, item := range in.Items {
		request.Items = append(request.Items, model.PurchaseReceiveItem{
			ProductID:     item.ProductID,
			WarehouseID:   item.WarehouseID,
			Quantity:      item.Quantity,
			BatchNumber:   item.BatchNumber,
			MfgDate:       item.MfgDate,
			ExpiryDate:    item.ExpiryDate,
			SerialNumbers: model.EncodeSerialNumbers(item.SerialNumbers),
			UnitCost:      item.UnitCost,
		})
	}

	var result *SubmitResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.purchaseRepo.Create(txCtx, request); err != nil {
			return fmt.Errorf("failed to create purchase receive: %w", err)
		}
		approval, err := s.createApprovalRequest(txCtx, model.ApprovalEntityPurchaseReceive, request.ID, in.RequestedBy, in.RequestComment, map[string]interface{}{
			"number":     request.Number,
			"item_count": len(request.Items),
		})
		if err != nil {
			return err
		}
		result = &SubmitResult{EntityID: request.ID, RequestID: approval.ID, Number: request.Number}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase receive submitted",
		zap.String("request_id", result.RequestID.String()),
		zap.String("number", result.Number))
	return result, nil
}

func (s *approvalService) SubmitSale(ctx context.Context, in SubmitSaleInput) (*SubmitResult, error) {
	if len(in.Items) == 0 {
		return nil, newValidationError("items", "at least one item is required")
	}
	for _, item := range in.Items {
		if !item.Quantity.IsPositive() {
			return nil, newValidationError("items.quantity", "quantity must be greater than zero")
		}
	}

	sale := &model.Sale{
		Number:      deriveReferenceNumber("SO", uuid.New()),
		CustomerRef: in.CustomerRef,
		Status:      model.StagingPendingApproval,
		Note:        in.Note,
		RequestedBy: in.RequestedBy,
	}
	for _, item := range in.Items {
		sale.Items = append(sale.Items, model.SaleItem{
			ProductID:     item.ProductID,
			WarehouseID:   item.WarehouseID,
			Quantity:      item.Quantity,
			BatchID:       item.BatchID,
			SerialNumbers: model.EncodeSerialNumbers(item.SerialNumbers),
			UnitPrice:     item.UnitPrice,
		})
	}

	var result *SubmitResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.saleRepo.Create(txCtx, sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}
		approval, err := s.createApprovalRequest(txCtx, model.ApprovalEntitySale, sale.ID, in.RequestedBy, in.RequestComment, map[string]interface{}{
			"number":     sale.Number,
			"item_count": len(sale.Items),
		})
		if err != nil {
			return err
		}
		result = &SubmitResult{EntityID: sale.ID, RequestID: approval.ID, Number: sale.Number}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale submitted",
		zap.String("request_id", result.RequestID.String()),
		zap.String("number", result.Number))
	return result, nil
}

func (s *approvalService) SubmitAdjustment(ctx context.Context, in SubmitAdjustmentInput) (*SubmitResult, error) {
	switch in.Method {
	case model.AdjustMethodIncrease, model.AdjustMethodDecrease:
		if in.Quantity == nil || !in.Quantity.IsPositive() {
			return nil, newValidationError("quantity", "a positive quantity is required")
		}
	case model.AdjustMethodSet:
		if in.NewQuantity == nil || in.NewQuantity.IsNegative() {
			return nil, newValidationError("new_quantity", "a non-negative new_quantity is required")
		}
	default:
		return nil, newValidationError("method", "method must be one of increase, decrease, set")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, newValidationError("reason", "an adjustment reason is required")
	}

	adjustment := &model.StockAdjustment{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		BatchID:     in.BatchID,
		Method:      in.Method,
		Reason:      in.Reason,
		Quantity:    in.Quantity,
		NewQuantity: in.NewQuantity,
		Status:      model.StagingPendingApproval,
		RequestedBy: in.RequestedBy,
	}

	var result *SubmitResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.adjustmentRepo.Create(txCtx, adjustment); err != nil {
			return fmt.Errorf("failed to create adjustment: %w", err)
		}
		approval, err := s.createApprovalRequest(txCtx, model.ApprovalEntityStockAdjustment, adjustment.ID, in.RequestedBy, in.RequestComment, map[string]interface{}{
			"method": in.Method,
			"reason": in.Reason,
		})
		if err != nil {
			return err
		}
		result = &SubmitResult{EntityID: adjustment.ID, RequestID: approval.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("adjustment submitted", zap.String("request_id", result.RequestID.String()))
	return result, nil
}

func (s *approvalService) SubmitTransfer(ctx context.Context, in SubmitTransferInput) (*SubmitResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, newValidationError("quantity", "quantity must be greater than zero")
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, newValidationError("to_warehouse_id", "source and destination warehouses must differ")
	}

	transfer := &model.StockTransfer{
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		BatchID:         in.BatchID,
		Quantity:        in.Quantity,
		SerialNumbers:   model.EncodeSerialNumbers(in.SerialNumbers),
		Note:            in.Note,
		Status:          model.StagingPendingApproval,
		RequestedBy:     in.RequestedBy,
	}

	var result *SubmitResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.transferRepo.Create(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to create transfer: %w", err)
		}
		approval, err := s.createApprovalRequest(txCtx, model.ApprovalEntityStockTransfer, transfer.ID, in.RequestedBy, in.RequestComment, map[string]interface{}{
			"quantity": in.Quantity.String(),
		})
		if err != nil {
			return err
		}
		result = &SubmitResult{EntityID: transfer.ID, RequestID: approval.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer submitted", zap.String("request_id", result.RequestID.String()))
	return result, nil
}

// RequestApproval opens a PENDING request for an already-staged entity. At
// most one PENDING request may exist per entity.
func (s *approvalService) RequestApproval(ctx context.Context, entityType string, entityID uuid.UUID, requestedBy uuid.UUID, comment string) (*model.ApprovalRequest, error) {
	if !validEntityType(entityType) {
		return nil, newValidationError("entity_type", "unknown entity type: "+entityType)
	}

	var request *model.ApprovalRequest
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		request, err = s.createApprovalRequest(txCtx, entityType, entityID, requestedBy, comment, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *approvalService) createApprovalRequest(ctx context.Context, entityType string, entityID uuid.UUID, requestedBy uuid.UUID, comment string, metadata map[string]interface{}) (*model.ApprovalRequest, error) {
	if _, err := s.approvalRepo.FindPendingByEntity(ctx, entityType, entityID); err == nil {
		return nil, ErrPendingRequestExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}

	payload := "{}"
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		payload = string(b)
	}
	request := &model.ApprovalRequest{
		EntityType:     entityType,
		EntityID:       entityID,
		Status:         model.ApprovalPending,
		RequestedBy:    requestedBy,
		RequestComment: comment,
		Metadata:       payload,
	}
	if err := s.approvalRepo.Create(ctx, request); err != nil {
		// The partial unique index over PENDING rows catches the insert race
		// the pre-check above cannot see.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPendingRequestExists
		}
		return nil, fmt.Errorf("failed to create approval request: %w", err)
	}

	if err := s.writeAudit(ctx, &requestedBy, model.ActionCreateApprovalRequest, request.ID, entityType, map[string]interface{}{
		"entity_id": entityID.String(),
	}); err != nil {
		return nil, err
	}
	return request, nil
}

// --- Review ---

// ApproveRequest transitions the request PENDING -> APPROVED and executes the
// staged operation, all in one transaction. The conditional transition is the
// idempotency gate: when zero rows move, another reviewer already decided the
// request and this call returns Executed false without touching stock.
func (s *approvalService) ApproveRequest(ctx context.Context, requestID, reviewerID uuid.UUID, comment string) (*DecisionResult, error) {
	var result *DecisionResult
	var changes []StockChange

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.loadRequest(txCtx, requestID)
		if err != nil {
			return err
		}

		rows, err := s.approvalRepo.TransitionFromPending(txCtx, requestID, model.ApprovalApproved, reviewerID, comment)
		if err != nil {
			return fmt.Errorf("failed to transition request: %w", err)
		}
		if rows == 0 {
			result = &DecisionResult{RequestID: requestID, Status: request.Status, Executed: false}
			return nil
		}

		executed := false
		switch request.EntityType {
		case model.ApprovalEntityPurchaseReceive:
			changes, executed, err = s.executePurchaseReceive(txCtx, request)
		case model.ApprovalEntitySale:
			changes, executed, err = s.executeSale(txCtx, request)
		case model.ApprovalEntityStockAdjustment:
			changes, executed, err = s.executeAdjustment(txCtx, request)
		case model.ApprovalEntityStockTransfer:
			changes, executed, err = s.executeTransfer(txCtx, request)
		default:
			err = fmt.Errorf("unknown entity type %q on request %s", request.EntityType, requestID)
		}
		if err != nil {
			return err
		}

		if executed {
			if err := s.writeAudit(txCtx, &reviewerID, model.ActionApproveRequest, requestID, request.EntityType, map[string]interface{}{
				"entity_id": request.EntityID.String(),
				"comment":   comment,
			}); err != nil {
				return err
			}
		}

		result = &DecisionResult{RequestID: requestID, Status: model.ApprovalApproved, Executed: executed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notify only after the transaction committed so consumers never
	// recompute against uncommitted state.
	if result.Executed && len(changes) > 0 {
		s.notifier.NotifyStockChanged(changes)
	}

	s.logger.Info("approval decided",
		zap.String("request_id", requestID.String()),
		zap.String("status", result.Status),
		zap.Bool("executed", result.Executed))
	return result, nil
}

// RejectRequest closes a PENDING request without ever running the staged
// operation. Rejecting an already decided request is a state conflict.
func (s *approvalService) RejectRequest(ctx context.Context, requestID, reviewerID uuid.UUID, comment string) (*DecisionResult, error) {
	return s.closeRequest(ctx, requestID, reviewerID, comment, model.ApprovalRejected, model.ActionRejectRequest, nil)
}

// CancelRequest withdraws a PENDING request. Only the original requester may
// cancel.
func (s *approvalService) CancelRequest(ctx context.Context, requestID, requesterID uuid.UUID, comment string) (*DecisionResult, error) {
	return s.closeRequest(ctx, requestID, requesterID, comment, model.ApprovalCancelled, model.ActionCancelRequest, func(request *model.ApprovalRequest) error {
		if request.RequestedBy != requesterID {
			return ErrPermissionDenied
		}
		return nil
	})
}

func (s *approvalService) closeRequest(ctx context.Context, requestID, actorID uuid.UUID, comment, status, action string, guard func(*model.ApprovalRequest) error) (*DecisionResult, error) {
	var result *DecisionResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.loadRequest(txCtx, requestID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(request); err != nil {
				return err
			}
		}

		rows, err := s.approvalRepo.TransitionFromPending(txCtx, requestID, status, actorID, comment)
		if err != nil {
			return fmt.Errorf("failed to transition request: %w", err)
		}
		if rows == 0 {
			// Unlike a repeated approve, closing a decided request has no
			// idempotent reading, so the caller gets the conflict.
			return fmt.Errorf("request is already %s: %w", request.Status, ErrStateConflict)
		}

		// The staging entity mirrors the closed request so it can never be
		// picked up again.
		stagingStatus := model.StagingRejected
		if status == model.ApprovalCancelled {
			stagingStatus = model.StagingCancelled
		}
		if err := s.updateStagingStatus(txCtx, request.EntityType, request.EntityID, stagingStatus); err != nil {
			return err
		}

		if err := s.writeAudit(txCtx, &actorID, action, requestID, request.EntityType, map[string]interface{}{
			"entity_id": request.EntityID.String(),
			"comment":   comment,
		}); err != nil {
			return err
		}

		result = &DecisionResult{RequestID: requestID, Status: status, Executed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("approval closed",
		zap.String("request_id", requestID.String()),
		zap.String("status", result.Status),
		zap.Bool("executed", result.Executed))
	return result, nil
}

// --- Execution by entity type ---

func (s *approvalService) executePurchaseReceive(ctx context.Context, request *model.ApprovalRequest) ([]StockChange, bool, error) {
	receive, err := s.purchaseRepo.FindByID(ctx, request.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrEntityNotFound
		}
		return nil, false, fmt.Errorf("failed to load purchase receive: %w", err)
	}
	// Second idempotency layer: a staging entity already past
	// PENDING_APPROVAL was executed (or closed) by an earlier decision.
	if receive.Status != model.StagingPendingApproval {
		return nil, false, nil
	}

	changes := make([]StockChange, 0, len(receive.Items))
	for _, item := range receive.Items {
		input := IncreaseStockInput{
			ProductID:     item.ProductID,
			WarehouseID:   item.WarehouseID,
			Quantity:      item.Quantity,
			SerialNumbers: model.DecodeSerialNumbers(item.SerialNumbers),
			Reference: ReferenceInput{
				ID:     &receive.ID,
				Number: receive.Number,
			},
			Note:    receive.Note,
			ActorID: &request.RequestedBy,
		}
		if item.BatchNumber != "" {
			input.Batch = &BatchInput{
				Number:     item.BatchNumber,
				MfgDate:    item.MfgDate,
				ExpiryDate: item.ExpiryDate,
			}
		}
		if _, err := s.stockService.ReceivePurchase(ctx, input); err != nil {
			return nil, false, err
		}
		changes = append(changes, StockChange{ProductID: item.ProductID, WarehouseID: item.WarehouseID})
	}

	if err := s.purchaseRepo.UpdateStatus(ctx, receive.ID, model.StagingReceived); err != nil {
		return nil, false, fmt.Errorf("failed to mark purchase receive: %w", err)
	}
	return changes, true, nil
}

func (s *approvalService) executeSale(ctx context.Context, request *model.ApprovalRequest) ([]StockChange, bool, error) {
	sale, err := s.saleRepo.FindByID(ctx, request.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrEntityNotFound
		}
		return nil, false, fmt.Errorf("failed to load sale: %w", err)
	}
	if sale.Status != model.StagingPendingApproval {
		return nil, false, nil
	}

	changes := make([]StockChange, 0, len(sale.Items))
	for _, item := range sale.Items {
		input := DecreaseStockInput{
			ProductID:     item.ProductID,
			WarehouseID:   item.WarehouseID,
			Quantity:      item.Quantity,
			BatchID:       item.BatchID,
			SerialNumbers: model.DecodeSerialNumbers(item.SerialNumbers),
			Reference: ReferenceInput{
				ID:     &sale.ID,
				Number: sale.Number,
			},
			Note:    sale.Note,
			ActorID: &request.RequestedBy,
		}
		if _, err := s.stockService.ConfirmSale(ctx, input); err != nil {
			return nil, false, err
		}
		changes = append(changes, StockChange{ProductID: item.ProductID, WarehouseID: item.WarehouseID})
	}

	if err := s.saleRepo.UpdateStatus(ctx, sale.ID, model.StagingConfirmed); err != nil {
		return nil, false, fmt.Errorf("failed to mark sale: %w", err)
	}
	return changes, true, nil
}

func (s *approvalService) executeAdjustment(ctx context.Context, request *model.ApprovalRequest) ([]StockChange, bool, error) {
	adjustment, err := s.adjustmentRepo.FindByID(ctx, request.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrEntityNotFound
		}
		return nil, false, fmt.Errorf("failed to load adjustment: %w", err)
	}
	if adjustment.Status != model.StagingPendingApproval {
		return nil, false, nil
	}

	if _, err := s.stockService.AdjustStock(ctx, AdjustStockInput{
		ProductID:   adjustment.ProductID,
		WarehouseID: adjustment.WarehouseID,
		BatchID:     adjustment.BatchID,
		Method:      adjustment.Method,
		Reason:      adjustment.Reason,
		Quantity:    adjustment.Quantity,
		NewQuantity: adjustment.NewQuantity,
		ActorID:     &request.RequestedBy,
	}); err != nil {
		return nil, false, err
	}

	if err := s.adjustmentRepo.UpdateStatus(ctx, adjustment.ID, model.StagingApplied); err != nil {
		return nil, false, fmt.Errorf("failed to mark adjustment: %w", err)
	}
	return []StockChange{{ProductID: adjustment.ProductID, WarehouseID: adjustment.WarehouseID}}, true, nil
}

func (s *approvalService) executeTransfer(ctx context.Context, request *model.ApprovalRequest) ([]StockChange, bool, error) {
	transfer, err := s.transferRepo.FindByID(ctx, request.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrEntityNotFound
		}
		return nil, false, fmt.Errorf("failed to load transfer: %w", err)
	}
	if transfer.Status != model.StagingPendingApproval {
		return nil, false, nil
	}

	if _, err := s.stockService.TransferStock(ctx, TransferStockInput{
		ProductID:       transfer.ProductID,
		FromWarehouseID: transfer.FromWarehouseID,
		ToWarehouseID:   transfer.ToWarehouseID,
		BatchID:         transfer.BatchID,
		Quantity:        transfer.Quantity,
		SerialNumbers:   model.DecodeSerialNumbers(transfer.SerialNumbers),
		Note:            transfer.Note,
		ActorID:         &request.RequestedBy,
	}); err != nil {
		return nil, false, err
	}

	if err := s.transferRepo.UpdateStatus(ctx, transfer.ID, model.StagingApplied); err != nil {
		return nil, false, fmt.Errorf("failed to mark transfer: %w", err)
	}
	return []StockChange{
		{ProductID: transfer.ProductID, WarehouseID: transfer.FromWarehouseID},
		{ProductID: transfer.ProductID, WarehouseID: transfer.ToWarehouseID},
	}, true, nil
}

// --- Queries and policy ---

// IsApprovalRequired consults the enabled policies for an entity type. A
// policy with MinAmount or WarehouseID set only fires when the candidate
// operation matches; a policy with neither set always fires.
func (s *approvalService) IsApprovalRequired(ctx context.Context, entityType string, amount decimal.Decimal, warehouseID *uuid.UUID) (bool, error) {
	if !validEntityType(entityType) {
		return false, newValidationError("entity_type", "unknown entity type: "+entityType)
	}

	policies, err := s.rulesRepo.ListPoliciesByType(ctx, entityType)
	if err != nil {
		return false, fmt.Errorf("failed to load approval policies: %w", err)
	}
	for _, policy := range policies {
		if policy.MinAmount != nil && amount.LessThan(*policy.MinAmount) {
			continue
		}
		if policy.WarehouseID != nil && (warehouseID == nil || *policy.WarehouseID != *warehouseID) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (s *approvalService) GetRequest(ctx context.Context, requestID uuid.UUID) (*model.ApprovalRequest, error) {
	return s.loadRequest(ctx, requestID)
}

func (s *approvalService) ListRequests(ctx context.Context, status, entityType string, page, limit int) ([]model.ApprovalRequest, int64, error) {
	return s.approvalRepo.List(ctx, status, entityType, page, limit)
}

// --- Helpers ---

func (s *approvalService) loadRequest(ctx context.Context, requestID uuid.UUID) (*model.ApprovalRequest, error) {
	request, err := s.approvalRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load approval request: %w", err)
	}
	return request, nil
}

func (s *approvalService) updateStagingStatus(ctx context.Context, entityType string, entityID uuid.UUID, status string) error {
	var err error
	switch entityType {
	case model.ApprovalEntityPurchaseReceive:
		err = s.purchaseRepo.UpdateStatus(ctx, entityID, status)
	case model.ApprovalEntitySale:
		err = s.saleRepo.UpdateStatus(ctx, entityID, status)
	case model.ApprovalEntityStockAdjustment:
		err = s.adjustmentRepo.UpdateStatus(ctx, entityID, status)
	case model.ApprovalEntityStockTransfer:
		err = s.transferRepo.UpdateStatus(ctx, entityID, status)
	default:
		return fmt.Errorf("unknown entity type %q", entityType)
	}
	if err != nil {
		return fmt.Errorf("failed to update staging status: %w", err)
	}
	return nil
}

func (s *approvalService) writeAudit(ctx context.Context, actorID *uuid.UUID, action string, entityID uuid.UUID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   entityID.String(),
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func validEntityType(entityType string) bool {
	switch entityType {
	case model.ApprovalEntityPurchaseReceive,
		model.ApprovalEntitySale,
		model.ApprovalEntityStockAdjustment,
		model.ApprovalEntityStockTransfer:
		return true
	}
	return false
}
