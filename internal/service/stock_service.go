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

// BatchInput describes a batch to find-or-create during an inbound operation.
type BatchInput struct {
	Number     string     `json:"number" binding:"required"`
	MfgDate    *time.Time `json:"mfg_date"`
	ExpiryDate *time.Time `json:"expiry_date"`
	Notes      string     `json:"notes"`
}

// ReferenceInput classifies what caused a movement. Kind defaults to MANUAL.
type ReferenceInput struct {
	Kind   string     `json:"kind"`
	ID     *uuid.UUID `json:"id"`
	Number string     `json:"number"`
}

// IncreaseStockInput is the option object for inbound operations.
type IncreaseStockInput struct {
	ProductID     uuid.UUID       `json:"product_id"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	BatchID       *uuid.UUID      `json:"batch_id"`
	Batch         *BatchInput     `json:"batch"`
	SerialNumbers []string        `json:"serial_numbers"`
	Reference     ReferenceInput  `json:"reference"`
	Note          string          `json:"note"`
	ActorID       *uuid.UUID      `json:"actor_id"`
}

// DecreaseStockInput is the option object for outbound operations.
// SerialDisposition defaults to SOLD; AllowNegative nil defers to the global
// inventory rule.
type DecreaseStockInput struct {
	ProductID         uuid.UUID       `json:"product_id"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	BatchID           *uuid.UUID      `json:"batch_id"`
	SerialNumbers     []string        `json:"serial_numbers"`
	SerialDisposition string          `json:"serial_disposition"`
	AllowNegative     *bool           `json:"allow_negative"`
	Reference         ReferenceInput  `json:"reference"`
	Note              string          `json:"note"`
	ActorID           *uuid.UUID      `json:"actor_id"`
}

// TransferStockInput moves quantity between two warehouses of one product.
type TransferStockInput struct {
	ProductID       uuid.UUID       `json:"product_id"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	BatchID         *uuid.UUID      `json:"batch_id"`
	SerialNumbers   []string        `json:"serial_numbers"`
	AllowNegative   *bool           `json:"allow_negative"`
	Note            string          `json:"note"`
	ActorID         *uuid.UUID      `json:"actor_id"`
}

// AdjustStockInput corrects a balance by increase, decrease or set.
type AdjustStockInput struct {
	ProductID     uuid.UUID        `json:"product_id"`
	WarehouseID   uuid.UUID        `json:"warehouse_id"`
	BatchID       *uuid.UUID       `json:"batch_id"`
	Method        string           `json:"method"`
	Reason        string           `json:"reason"`
	Quantity      *decimal.Decimal `json:"quantity"`
	NewQuantity   *decimal.Decimal `json:"new_quantity"`
	SerialNumbers []string         `json:"serial_numbers"`
	AllowNegative *bool            `json:"allow_negative"`
	ActorID       *uuid.UUID       `json:"actor_id"`
}

// StockOperationResult reports one ledger write.
type StockOperationResult struct {
	MovementID  uuid.UUID       `json:"movement_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	BatchID     *uuid.UUID      `json:"batch_id"`
}

// TransferResult reports the paired ledger writes of a transfer.
type TransferResult struct {
	CorrelationID   uuid.UUID       `json:"correlation_id"`
	ReferenceNumber string          `json:"reference_number"`
	OutMovementID   uuid.UUID       `json:"out_movement_id"`
	InMovementID    uuid.UUID       `json:"in_movement_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	FromQuantity    decimal.Decimal `json:"from_quantity"`
	ToQuantity      decimal.Decimal `json:"to_quantity"`
}

// StockService is the transactional stock operations engine. Every operation
// validates first, then writes movement(s), balance(s), batch/serial state and
// an audit entry inside one transaction; on any failure nothing is written.
type StockService interface {
	IncreaseStock(ctx context.Context, in IncreaseStockInput) (*StockOperationResult, error)
	DecreaseStock(ctx context.Context, in DecreaseStockInput) (*StockOperationResult, error)
	TransferStock(ctx context.Context, in TransferStockInput) (*TransferResult, error)
	AdjustStock(ctx context.Context, in AdjustStockInput) (*StockOperationResult, error)
	ReceivePurchase(ctx context.Context, in IncreaseStockInput) (*StockOperationResult, error)
	ConfirmSale(ctx context.Context, in DecreaseStockInput) (*StockOperationResult, error)

	GetBalance(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error)
	ListBalancesByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockBalance, error)
	ListBalancesByWarehouse(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.StockBalance, int64, error)
	ListMovements(ctx context.Context, filter repository.MovementFilter, page, limit int) ([]model.StockMovement, int64, error)
	ListBatchesByProduct(ctx context.Context, productID uuid.UUID) ([]model.Batch, error)
	ListSerialsByProduct(ctx context.Context, productID uuid.UUID, status string, page, limit int) ([]model.SerialUnit, int64, error)
}

type stockService struct {
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	movementRepo  repository.MovementRepository
	balanceRepo   repository.BalanceRepository
	batchRepo     repository.BatchRepository
	serialRepo    repository.SerialRepository
	rulesRepo     repository.RulesRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	logger        *zap.Logger
}

func NewStockService(
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	movementRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
	batchRepo repository.BatchRepository,
	serialRepo repository.SerialRepository,
	rulesRepo repository.RulesRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	logger *zap.Logger,
) StockService {
	return &stockService{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		movementRepo:  movementRepo,
		balanceRepo:   balanceRepo,
		batchRepo:     batchRepo,
		serialRepo:    serialRepo,
		rulesRepo:     rulesRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

func (s *stockService) IncreaseStock(ctx context.Context, in IncreaseStockInput) (*StockOperationResult, error) {
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if in.Reference.Kind == "" {
		in.Reference.Kind = model.RefKindManual
	}

	var result *StockOperationResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, warehouse, err := s.loadProductWarehouse(txCtx, in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}

		batchID, err := s.resolveInboundBatch(txCtx, product, in.BatchID, in.Batch)
		if err != nil {
			return err
		}

		if err := validateInboundSerials(product, in.SerialNumbers, in.Quantity); err != nil {
			return err
		}

		balance, err := s.lockOrCreateBalance(txCtx, in.ProductID, in.WarehouseID, batchID)
		if err != nil {
			return err
		}

		movement := &model.StockMovement{
			ProductID:       in.ProductID,
			WarehouseID:     in.WarehouseID,
			BatchID:         batchID,
			Direction:       model.DirectionIn,
			Quantity:        in.Quantity,
			ReferenceKind:   in.Reference.Kind,
			ReferenceID:     in.Reference.ID,
			ReferenceNumber: in.Reference.Number,
			Note:            in.Note,
			ActorID:         in.ActorID,
			SerialCount:     len(in.SerialNumbers),
		}
		if err := s.movementRepo.Create(txCtx, movement); err != nil {
			return fmt.Errorf("failed to write movement: %w", err)
		}

		newQuantity := balance.Quantity.Add(in.Quantity)
		if err := s.balanceRepo.UpdateQuantities(txCtx, balance.ID, newQuantity, balance.Reserved); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		if product.IsSerialTracked && len(in.SerialNumbers) > 0 {
			units := make([]model.SerialUnit, 0, len(in.SerialNumbers))
			for _, number := range in.SerialNumbers {
				units = append(units, model.SerialUnit{
					ProductID:      in.ProductID,
					SerialNumber:   number,
					Status:         model.SerialStatusInStock,
					WarehouseID:    in.WarehouseID,
					BatchID:        batchID,
					LastMovementID: &movement.ID,
				})
			}
			if err := s.serialRepo.CreateBulk(txCtx, units); err != nil {
				return fmt.Errorf("failed to register serial units: %w", err)
			}
		}

		if err := s.writeAudit(txCtx, in.ActorID, model.ActionIncreaseStock, movement.ID, product.SKU, map[string]interface{}{
			"warehouse": warehouse.Code,
			"quantity":  in.Quantity.String(),
			"reference": in.Reference.Kind,
		}); err != nil {
			return err
		}

		result = &StockOperationResult{
			MovementID:  movement.ID,
			Quantity:    in.Quantity,
			NewQuantity: newQuantity,
			BatchID:     batchID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock increased",
		zap.String("product_id", in.ProductID.String()),
		zap.String("warehouse_id", in.WarehouseID.String()),
		zap.String("quantity", in.Quantity.String()))
	return result, nil
}

func (s *stockService) DecreaseStock(ctx context.Context, in DecreaseStockInput) (*StockOperationResult, error) {
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if in.Reference.Kind == "" {
		in.Reference.Kind = model.RefKindManual
	}
	if in.SerialDisposition == "" {
		in.SerialDisposition = model.SerialStatusSold
	}
	if err := validateDisposition(in.SerialDisposition); err != nil {
		return nil, err
	}

	var result *StockOperationResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, warehouse, err := s.loadProductWarehouse(txCtx, in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}

		if product.IsBatchTracked && in.BatchID == nil {
			return newValidationError("batch_id", "batch is required for a batch-tracked product")
		}
		if in.BatchID != nil {
			if err := s.verifyBatch(txCtx, *in.BatchID, in.ProductID); err != nil {
				return err
			}
		}

		serialIDs, err := s.resolveOutboundSerials(txCtx, product, in.SerialNumbers, in.Quantity, in.WarehouseID, in.BatchID)
		if err != nil {
			return err
		}

		balance, err := s.lockOrCreateBalance(txCtx, in.ProductID, in.WarehouseID, in.BatchID)
		if err != nil {
			return err
		}

		newQuantity := balance.Quantity.Sub(in.Quantity)
		if newQuantity.IsNegative() {
			allowed, err := s.negativeAllowed(txCtx, in.AllowNegative)
			if err != nil {
				return err
			}
			if !allowed {
				return fmt.Errorf("%w: available %s, requested %s",
					ErrInsufficientStock, balance.Quantity.String(), in.Quantity.String())
			}
		}

		movement := &model.StockMovement{
			ProductID:       in.ProductID,
			WarehouseID:     in.WarehouseID,
			BatchID:         in.BatchID,
			Direction:       model.DirectionOut,
			Quantity:        in.Quantity,
			ReferenceKind:   in.Reference.Kind,
			ReferenceID:     in.Reference.ID,
			ReferenceNumber: in.Reference.Number,
			Note:            in.Note,
			ActorID:         in.ActorID,
			SerialCount:     len(serialIDs),
		}
		if err := s.movementRepo.Create(txCtx, movement); err != nil {
			return fmt.Errorf("failed to write movement: %w", err)
		}

		if err := s.balanceRepo.UpdateQuantities(txCtx, balance.ID, newQuantity, balance.Reserved); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		if len(serialIDs) > 0 {
			now := time.Now()
			if err := s.serialRepo.UpdateStatus(txCtx, serialIDs, in.SerialDisposition, &movement.ID, &now); err != nil {
				return fmt.Errorf("failed to update serial units: %w", err)
			}
		}

		if err := s.writeAudit(txCtx, in.ActorID, model.ActionDecreaseStock, movement.ID, product.SKU, map[string]interface{}{
			"warehouse": warehouse.Code,
			"quantity":  in.Quantity.String(),
			"reference": in.Reference.Kind,
		}); err != nil {
			return err
		}

		result = &StockOperationResult{
			MovementID:  movement.ID,
			Quantity:    in.Quantity,
			NewQuantity: newQuantity,
			BatchID:     in.BatchID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock decreased",
		zap.String("product_id", in.ProductID.String()),
		zap.String("warehouse_id", in.WarehouseID.String()),
		zap.String("quantity", in.Quantity.String()))
	return result, nil
}

func (s *stockService) TransferStock(ctx context.Context, in TransferStockInput) (*TransferResult, error) {
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, newValidationError("to_warehouse_id", "source and destination warehouses must differ")
	}

	correlationID := uuid.New()
	referenceNumber := deriveReferenceNumber("TRF", correlationID)

	var result *TransferResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, from, err := s.loadProductWarehouse(txCtx, in.ProductID, in.FromWarehouseID)
		if err != nil {
			return err
		}
		to, err := s.warehouseRepo.FindByID(txCtx, in.ToWarehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWarehouseNotFound
			}
			return fmt.Errorf("failed to load warehouse: %w", err)
		}

		if product.IsBatchTracked && in.BatchID == nil {
			return newValidationError("batch_id", "batch is required for a batch-tracked product")
		}
		if in.BatchID != nil {
			if err := s.verifyBatch(txCtx, *in.BatchID, in.ProductID); err != nil {
				return err
			}
		}

		serialIDs, err := s.resolveOutboundSerials(txCtx, product, in.SerialNumbers, in.Quantity, in.FromWarehouseID, in.BatchID)
		if err != nil {
			return err
		}

		source, err := s.lockOrCreateBalance(txCtx, in.ProductID, in.FromWarehouseID, in.BatchID)
		if err != nil {
			return err
		}

		fromQuantity := source.Quantity.Sub(in.Quantity)
		if fromQuantity.IsNegative() {
			allowed, err := s.negativeAllowed(txCtx, in.AllowNegative)
			if err != nil {
				return err
			}
			if !allowed {
				return fmt.Errorf("%w: available %s, requested %s",
					ErrInsufficientStock, source.Quantity.String(), in.Quantity.String())
			}
		}

		// OUT is written before IN so an incomplete pair is always detectable
		// through the shared correlation id.
		outMovement := &model.StockMovement{
			ProductID:              in.ProductID,
			WarehouseID:            in.FromWarehouseID,
			BatchID:                in.BatchID,
			Direction:              model.DirectionTransferOut,
			Quantity:               in.Quantity,
			ReferenceKind:          model.RefKindTransfer,
			ReferenceID:            &correlationID,
			ReferenceNumber:        referenceNumber,
			CounterpartWarehouseID: &in.ToWarehouseID,
			Note:                   in.Note,
			ActorID:                in.ActorID,
			SerialCount:            len(serialIDs),
		}
		if err := s.movementRepo.Create(txCtx, outMovement); err != nil {
			return fmt.Errorf("failed to write transfer-out movement: %w", err)
		}

		inMovement := &model.StockMovement{
			ProductID:              in.ProductID,
			WarehouseID:            in.ToWarehouseID,
			BatchID:                in.BatchID,
			Direction:              model.DirectionTransferIn,
			Quantity:               in.Quantity,
			ReferenceKind:          model.RefKindTransfer,
			ReferenceID:            &correlationID,
			ReferenceNumber:        referenceNumber,
			CounterpartWarehouseID: &in.FromWarehouseID,
			Note:                   in.Note,
			ActorID:                in.ActorID,
			SerialCount:            len(serialIDs),
		}
		if err := s.movementRepo.Create(txCtx, inMovement); err != nil {
			return fmt.Errorf("failed to write transfer-in movement: %w", err)
		}

		if err := s.balanceRepo.UpdateQuantities(txCtx, source.ID, fromQuantity, source.Reserved); err != nil {
			return fmt.Errorf("failed to update source balance: %w", err)
		}

		destination, err := s.lockOrCreateBalance(txCtx, in.ProductID, in.ToWarehouseID, in.BatchID)
		if err != nil {
			return err
		}
		toQuantity := destination.Quantity.Add(in.Quantity)
		if err := s.balanceRepo.UpdateQuantities(txCtx, destination.ID, toQuantity, destination.Reserved); err != nil {
			return fmt.Errorf("failed to update destination balance: %w", err)
		}

		// Transferred units stay IN_STOCK; only their warehouse changes.
		if len(serialIDs) > 0 {
			if err := s.serialRepo.UpdateWarehouse(txCtx, serialIDs, in.ToWarehouseID, &inMovement.ID); err != nil {
				return fmt.Errorf("failed to re-home serial units: %w", err)
			}
		}

		if err := s.writeAudit(txCtx, in.ActorID, model.ActionTransferStock, outMovement.ID, product.SKU, map[string]interface{}{
			"from":      from.Code,
			"to":        to.Code,
			"quantity":  in.Quantity.String(),
			"reference": referenceNumber,
		}); err != nil {
			return err
		}

		result = &TransferResult{
			CorrelationID:   correlationID,
			ReferenceNumber: referenceNumber,
			OutMovementID:   outMovement.ID,
			InMovementID:    inMovement.ID,
			Quantity:        in.Quantity,
			FromQuantity:    fromQuantity,
			ToQuantity:      toQuantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock transferred",
		zap.String("product_id", in.ProductID.String()),
		zap.String("from", in.FromWarehouseID.String()),
		zap.String("to", in.ToWarehouseID.String()),
		zap.String("quantity", in.Quantity.String()),
		zap.String("correlation_id", correlationID.String()))
	return result, nil
}

// AdjustStock corrects a balance. Methods increase and decrease delegate with
// an ADJUSTMENT reference; set computes the signed delta against the current
// balance and delegates with it, returning a zero-quantity result when the
// balance already matches.
func (s *stockService) AdjustStock(ctx context.Context, in AdjustStockInput) (*StockOperationResult, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, newValidationError("reason", "an adjustment reason is required")
	}

	refID := uuid.New()
	reference := ReferenceInput{
		Kind:   model.RefKindAdjustment,
		ID:     &refID,
		Number: deriveReferenceNumber("ADJ", refID),
	}

	switch in.Method {
	case model.AdjustMethodIncrease:
		if in.Quantity == nil {
			return nil, newValidationError("quantity", "quantity is required for an increase adjustment")
		}
		return s.IncreaseStock(ctx, IncreaseStockInput{
			ProductID:     in.ProductID,
			WarehouseID:   in.WarehouseID,
			Quantity:      *in.Quantity,
			BatchID:       in.BatchID,
			SerialNumbers: in.SerialNumbers,
			Reference:     reference,
			Note:          in.Reason,
			ActorID:       in.ActorID,
		})

	case model.AdjustMethodDecrease:
		if in.Quantity == nil {
			return nil, newValidationError("quantity", "quantity is required for a decrease adjustment")
		}
		return s.DecreaseStock(ctx, DecreaseStockInput{
			ProductID:         in.ProductID,
			WarehouseID:       in.WarehouseID,
			Quantity:          *in.Quantity,
			BatchID:           in.BatchID,
			SerialNumbers:     in.SerialNumbers,
			SerialDisposition: model.SerialStatusDamaged,
			AllowNegative:     in.AllowNegative,
			Reference:         reference,
			Note:              in.Reason,
			ActorID:           in.ActorID,
		})

	case model.AdjustMethodSet:
		if in.NewQuantity == nil {
			return nil, newValidationError("new_quantity", "new_quantity is required for a set adjustment")
		}
		if in.NewQuantity.IsNegative() {
			return nil, newValidationError("new_quantity", "new_quantity must not be negative")
		}

		var result *StockOperationResult
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			product, _, err := s.loadProductWarehouse(txCtx, in.ProductID, in.WarehouseID)
			if err != nil {
				return err
			}

			if product.IsBatchTracked && in.BatchID == nil {
				return newValidationError("batch_id", "batch is required for a batch-tracked product")
			}
			if in.BatchID != nil {
				if err := s.verifyBatch(txCtx, *in.BatchID, in.ProductID); err != nil {
					return err
				}
			}

			balance, err := s.lockOrCreateBalance(txCtx, in.ProductID, in.WarehouseID, in.BatchID)
			if err != nil {
				return err
			}

			delta := in.NewQuantity.Sub(balance.Quantity)
			if delta.IsZero() {
				result = &StockOperationResult{
					Quantity:    decimal.Zero,
					NewQuantity: balance.Quantity,
					BatchID:     in.BatchID,
				}
				return nil
			}

			inner := in
			inner.Method = model.AdjustMethodIncrease
			quantity := delta
			if delta.IsNegative() {
				inner.Method = model.AdjustMethodDecrease
				quantity = delta.Neg()
			}
			inner.Quantity = &quantity
			inner.NewQuantity = nil

			result, err = s.AdjustStock(txCtx, inner)
			return err
		})
		if err != nil {
			return nil, err
		}
		return result, nil

	default:
		return nil, newValidationError("method", "method must be one of increase, decrease, set")
	}
}

// ReceivePurchase is the reference-typed inbound wrapper used by all
// purchase flows.
func (s *stockService) ReceivePurchase(ctx context.Context, in IncreaseStockInput) (*StockOperationResult, error) {
	in.Reference.Kind = model.RefKindPurchase
	return s.IncreaseStock(ctx, in)
}

// ConfirmSale is the reference-typed outbound wrapper used by all sale flows.
func (s *stockService) ConfirmSale(ctx context.Context, in DecreaseStockInput) (*StockOperationResult, error) {
	in.Reference.Kind = model.RefKindSale
	if in.SerialDisposition == "" {
		in.SerialDisposition = model.SerialStatusSold
	}
	return s.DecreaseStock(ctx, in)
}

func (s *stockService) GetBalance(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error) {
	balance, err := s.balanceRepo.Find(ctx, productID, warehouseID, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.StockBalance{
				ProductID:   productID,
				WarehouseID: warehouseID,
				BatchID:     batchID,
				Quantity:    decimal.Zero,
				Reserved:    decimal.Zero,
				Available:   decimal.Zero,
			}, nil
		}
		return nil, err
	}
	return balance, nil
}

func (s *stockService) ListBalancesByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockBalance, error) {
	return s.balanceRepo.ListByProduct(ctx, productID)
}

func (s *stockService) ListBalancesByWarehouse(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.StockBalance, int64, error) {
	return s.balanceRepo.ListByWarehouse(ctx, warehouseID, page, limit)
}

func (s *stockService) ListMovements(ctx context.Context, filter repository.MovementFilter, page, limit int) ([]model.StockMovement, int64, error) {
	return s.movementRepo.List(ctx, filter, page, limit)
}

func (s *stockService) ListBatchesByProduct(ctx context.Context, productID uuid.UUID) ([]model.Batch, error) {
	return s.batchRepo.ListByProduct(ctx, productID)
}

func (s *stockService) ListSerialsByProduct(ctx context.Context, productID uuid.UUID, status string, page, limit int) ([]model.SerialUnit, int64, error) {
	return s.serialRepo.ListByProduct(ctx, productID, status, page, limit)
}

// --- Helpers ---

func validateQuantity(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return newValidationError("quantity", "quantity must be greater than zero")
	}
	return nil
}

func validateDisposition(disposition string) error {
	switch disposition {
	case model.SerialStatusSold, model.SerialStatusDamaged, model.SerialStatusReturned:
		return nil
	}
	return newValidationError("serial_disposition", "disposition must be one of SOLD, DAMAGED, RETURNED")
}

// validateInboundSerials requires the serial count to match the quantity when
// serials are supplied for a serial-tracked product, and rejects duplicates.
func validateInboundSerials(product *model.Product, serialNumbers []string, quantity decimal.Decimal) error {
	if len(serialNumbers) == 0 {
		return nil
	}
	if !product.IsSerialTracked {
		return newValidationError("serial_numbers", "product is not serial-tracked")
	}
	if !quantity.Equal(decimal.NewFromInt(int64(len(serialNumbers)))) {
		return newValidationError("serial_numbers",
			fmt.Sprintf("serial count %d does not match quantity %s", len(serialNumbers), quantity.String()))
	}
	seen := make(map[string]struct{}, len(serialNumbers))
	for _, number := range serialNumbers {
		if _, dup := seen[number]; dup {
			return newValidationError("serial_numbers", "duplicate serial number: "+number)
		}
		seen[number] = struct{}{}
	}
	return nil
}

func (s *stockService) loadProductWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*model.Product, *model.Warehouse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}

	warehouse, err := s.warehouseRepo.FindByID(ctx, warehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrWarehouseNotFound
		}
		return nil, nil, fmt.Errorf("failed to load warehouse: %w", err)
	}

	return product, warehouse, nil
}

// resolveInboundBatch enforces the batch requirement for batch-tracked
// products and resolves either an existing batch id or a find-or-create input.
func (s *stockService) resolveInboundBatch(ctx context.Context, product *model.Product, batchID *uuid.UUID, batchInput *BatchInput) (*uuid.UUID, error) {
	if batchID == nil && batchInput == nil {
		if product.IsBatchTracked {
			return nil, newValidationError("batch", "a batch is required for a batch-tracked product")
		}
		return nil, nil
	}

	if batchID != nil {
		if err := s.verifyBatch(ctx, *batchID, product.ID); err != nil {
			return nil, err
		}
		return batchID, nil
	}

	if strings.TrimSpace(batchInput.Number) == "" {
		return nil, newValidationError("batch.number", "batch number must not be empty")
	}
	batch, err := s.batchRepo.FindOrCreate(ctx, product.ID, batchInput.Number, batchInput.MfgDate, batchInput.ExpiryDate, batchInput.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve batch: %w", err)
	}
	return &batch.ID, nil
}

func (s *stockService) verifyBatch(ctx context.Context, batchID, productID uuid.UUID) error {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBatchNotFound
		}
		return fmt.Errorf("failed to load batch: %w", err)
	}
	if batch.ProductID != productID {
		return ErrBatchNotFound
	}
	return nil
}

// resolveOutboundSerials maps requested serial numbers to IN_STOCK units in
// the given warehouse (and batch when scoped). Serial-tracked products demand
// exactly quantity serials; any unresolvable serial fails the whole set.
func (s *stockService) resolveOutboundSerials(ctx context.Context, product *model.Product, serialNumbers []string, quantity decimal.Decimal, warehouseID uuid.UUID, batchID *uuid.UUID) ([]uuid.UUID, error) {
	if product.IsSerialTracked {
		if !quantity.Equal(decimal.NewFromInt(int64(len(serialNumbers)))) {
			return nil, newValidationError("serial_numbers",
				fmt.Sprintf("serial count %d does not match quantity %s", len(serialNumbers), quantity.String()))
		}
	} else if len(serialNumbers) > 0 {
		return nil, newValidationError("serial_numbers", "product is not serial-tracked")
	}
	if len(serialNumbers) == 0 {
		return nil, nil
	}

	units, err := s.serialRepo.FindByNumbers(ctx, product.ID, serialNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve serial units: %w", err)
	}

	byNumber := make(map[string]*model.SerialUnit, len(units))
	for i := range units {
		byNumber[units[i].SerialNumber] = &units[i]
	}

	var missing []string
	ids := make([]uuid.UUID, 0, len(serialNumbers))
	for _, number := range serialNumbers {
		unit, ok := byNumber[number]
		switch {
		case !ok,
			unit.Status != model.SerialStatusInStock,
			unit.WarehouseID != warehouseID,
			batchID != nil && (unit.BatchID == nil || *unit.BatchID != *batchID):
			missing = append(missing, number)
		default:
			ids = append(ids, unit.ID)
		}
	}
	if len(missing) > 0 {
		return nil, &SerialResolutionError{Missing: missing}
	}
	return ids, nil
}

// lockOrCreateBalance locks the balance row for the key, creating a zeroed
// row first when the key has never moved.
func (s *stockService) lockOrCreateBalance(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error) {
	balance, err := s.balanceRepo.FindForUpdate(ctx, productID, warehouseID, batchID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}
	balance, err = s.balanceRepo.GetOrCreate(ctx, productID, warehouseID, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance: %w", err)
	}
	return balance, nil
}

func (s *stockService) negativeAllowed(ctx context.Context, override *bool) (bool, error) {
	if override != nil {
		return *override, nil
	}
	allowed, err := s.rulesRepo.AllowNegativeStock(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read inventory rules: %w", err)
	}
	return allowed, nil
}

func (s *stockService) writeAudit(ctx context.Context, actorID *uuid.UUID, action string, entityID uuid.UUID, entityName string, details map[string]interface{}) error {
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

func deriveReferenceNumber(prefix string, id uuid.UUID) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12]))
}
