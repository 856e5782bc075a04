package repository

import (
	"context"

	"inventory-portal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementFilter narrows ledger listings. Zero values mean "any".
type MovementFilter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	BatchID     *uuid.UUID
	Direction   string
	RefKind     string
}

// MovementRepository is the append-only ledger surface. There is deliberately
// no update or delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	List(ctx context.Context, filter MovementFilter, page, limit int) ([]model.StockMovement, int64, error)
	SumForKey(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (decimal.Decimal, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *movementRepository) List(ctx context.Context, filter MovementFilter, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	query := GetDB(ctx, r.db).Model(&model.StockMovement{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.RefKind != "" {
		query = query.Where("reference_kind = ?", filter.RefKind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

// SumForKey returns the signed movement sum for one balance key. Used by
// reconciliation checks; balances must always match this value.
func (r *movementRepository) SumForKey(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (decimal.Decimal, error) {
	query := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Select(`COALESCE(SUM(CASE WHEN direction IN ('IN', 'TRANSFER_IN') THEN quantity ELSE -quantity END), 0)`).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID)
	if batchID != nil {
		query = query.Where("batch_id = ?", *batchID)
	} else {
		query = query.Where("batch_id IS NULL")
	}

	var sum decimal.Decimal
	if err := query.Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
