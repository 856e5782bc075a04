package repository

import (
	"context"
	"errors"
	"time"

	"inventory-portal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BalanceRepository manages the per (product, warehouse, batch) aggregates.
// Quantity writes happen only inside the transaction that writes the
// justifying movement.
type BalanceRepository interface {
	Find(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error)
	GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error)
	FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error)
	UpdateQuantities(ctx context.Context, id uuid.UUID, quantity, reserved decimal.Decimal) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockBalance, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.StockBalance, int64, error)
}

type balanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) BalanceRepository {
	return &balanceRepository{db: db}
}

func batchScope(query *gorm.DB, batchID *uuid.UUID) *gorm.DB {
	if batchID != nil {
		return query.Where("batch_id = ?", *batchID)
	}
	return query.Where("batch_id IS NULL")
}

func (r *balanceRepository) Find(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error) {
	var balance model.StockBalance
	query := GetDB(ctx, r.db).Where("product_id = ? AND warehouse_id = ?", productID, warehouseID)
	if err := batchScope(query, batchID).First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// GetOrCreate returns the balance row for the key, inserting a zeroed row
// when none exists yet.
func (r *balanceRepository) GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error) {
	balance, err := r.Find(ctx, productID, warehouseID, batchID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &model.StockBalance{
		ProductID:   productID,
		WarehouseID: warehouseID,
		BatchID:     batchID,
		Quantity:    decimal.Zero,
		Reserved:    decimal.Zero,
		Available:   decimal.Zero,
	}
	if err := GetDB(ctx, r.db).Create(fresh).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

// FindForUpdate locks the balance row for the rest of the transaction so
// concurrent read-modify-write cycles on the same key serialize.
func (r *balanceRepository) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID, batchID *uuid.UUID) (*model.StockBalance, error) {
	var balance model.StockBalance
	query := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID)
	if err := batchScope(query, batchID).First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// UpdateQuantities persists new quantity/reserved figures, recomputing the
// available column and stamping the update time.
func (r *balanceRepository) UpdateQuantities(ctx context.Context, id uuid.UUID, quantity, reserved decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.StockBalance{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":   quantity,
		"reserved":   reserved,
		"available":  quantity.Sub(reserved),
		"updated_at": time.Now(),
	}).Error
}

func (r *balanceRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockBalance, error) {
	var balances []model.StockBalance
	if err := GetDB(ctx, r.db).Where("product_id = ?", productID).Order("warehouse_id").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

func (r *balanceRepository) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.StockBalance, int64, error) {
	var balances []model.StockBalance
	var total int64

	query := GetDB(ctx, r.db).Model(&model.StockBalance{}).Where("warehouse_id = ?", warehouseID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("product_id").Offset(offset).Limit(limit).Find(&balances).Error; err != nil {
		return nil, 0, err
	}

	return balances, total, nil
}
