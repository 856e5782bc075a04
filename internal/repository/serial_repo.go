package repository

import (
	"context"
	"time"

	"inventory-portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SerialRepository is the serial registry: bulk creation on receipt and bulk
// status/warehouse transitions tied to a movement.
type SerialRepository interface {
	CreateBulk(ctx context.Context, units []model.SerialUnit) error
	// FindByNumbers loads the units for the given serial numbers of one
	// product, regardless of status or location. Callers decide whether a
	// partial result is an error.
	FindByNumbers(ctx context.Context, productID uuid.UUID, serialNumbers []string) ([]model.SerialUnit, error)
	UpdateStatus(ctx context.Context, ids []uuid.UUID, status string, movementID *uuid.UUID, disposedAt *time.Time) error
	UpdateWarehouse(ctx context.Context, ids []uuid.UUID, warehouseID uuid.UUID, movementID *uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID, status string, page, limit int) ([]model.SerialUnit, int64, error)
}

type serialRepository struct {
	db *gorm.DB
}

func NewSerialRepository(db *gorm.DB) SerialRepository {
	return &serialRepository{db: db}
}

func (r *serialRepository) CreateBulk(ctx context.Context, units []model.SerialUnit) error {
	if len(units) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&units).Error
}

func (r *serialRepository) FindByNumbers(ctx context.Context, productID uuid.UUID, serialNumbers []string) ([]model.SerialUnit, error) {
	if len(serialNumbers) == 0 {
		return nil, nil
	}
	var units []model.SerialUnit
	if err := GetDB(ctx, r.db).
		Where("product_id = ? AND serial_number IN ?", productID, serialNumbers).
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *serialRepository) UpdateStatus(ctx context.Context, ids []uuid.UUID, status string, movementID *uuid.UUID, disposedAt *time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if movementID != nil {
		updates["last_movement_id"] = *movementID
	}
	if disposedAt != nil {
		updates["disposed_at"] = *disposedAt
	}
	return GetDB(ctx, r.db).Model(&model.SerialUnit{}).Where("id IN ?", ids).Updates(updates).Error
}

func (r *serialRepository) UpdateWarehouse(ctx context.Context, ids []uuid.UUID, warehouseID uuid.UUID, movementID *uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	updates := map[string]interface{}{
		"warehouse_id": warehouseID,
		"updated_at":   time.Now(),
	}
	if movementID != nil {
		updates["last_movement_id"] = *movementID
	}
	return GetDB(ctx, r.db).Model(&model.SerialUnit{}).Where("id IN ?", ids).Updates(updates).Error
}

func (r *serialRepository) ListByProduct(ctx context.Context, productID uuid.UUID, status string, page, limit int) ([]model.SerialUnit, int64, error) {
	var units []model.SerialUnit
	var total int64

	query := GetDB(ctx, r.db).Model(&model.SerialUnit{}).Where("product_id = ?", productID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("serial_number").Offset(offset).Limit(limit).Find(&units).Error; err != nil {
		return nil, 0, err
	}

	return units, total, nil
}
