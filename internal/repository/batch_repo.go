package repository

import (
	"context"
	"errors"
	"time"

	"inventory-portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchRepository is the batch registry: find-or-create by (product, number),
// lookup by id. Batch identity is never mutated after creation.
type BatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	FindOrCreate(ctx context.Context, productID uuid.UUID, number string, mfgDate, expiryDate *time.Time, notes string) (*model.Batch, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Batch, error)
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	var batch model.Batch
	if err := GetDB(ctx, r.db).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindOrCreate returns the batch for (productID, number), creating it when
// missing. An existing batch is returned untouched even when the caller
// supplies different dates or notes.
func (r *batchRepository) FindOrCreate(ctx context.Context, productID uuid.UUID, number string, mfgDate, expiryDate *time.Time, notes string) (*model.Batch, error) {
	db := GetDB(ctx, r.db)

	var batch model.Batch
	err := db.Where("product_id = ? AND number = ?", productID, number).First(&batch).Error
	if err == nil {
		return &batch, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	batch = model.Batch{
		ProductID:  productID,
		Number:     number,
		MfgDate:    mfgDate,
		ExpiryDate: expiryDate,
		Notes:      notes,
	}
	if err := db.Create(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Batch, error) {
	var batches []model.Batch
	if err := GetDB(ctx, r.db).Where("product_id = ?", productID).Order("created_at DESC").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}
