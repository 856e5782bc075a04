package repository

import (
	"context"
	"time"

	"inventory-portal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staging repositories persist the deferred entities awaiting approval. The
// status column is the only mutable field; UpdateStatus is used both for the
// terminal success state after execution and for REJECTED/CANCELLED.

type PurchaseReceiveRepository interface {
	Create(ctx context.Context, req *model.PurchaseReceiveRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseReceiveRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type purchaseReceiveRepository struct {
	db *gorm.DB
}

func NewPurchaseReceiveRepository(db *gorm.DB) PurchaseReceiveRepository {
	return &purchaseReceiveRepository{db: db}
}

func (r *purchaseReceiveRepository) Create(ctx context.Context, req *model.PurchaseReceiveRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *purchaseReceiveRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseReceiveRequest, error) {
	var req model.PurchaseReceiveRequest
	if err := GetDB(ctx, r.db).Preload("Items").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *purchaseReceiveRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.PurchaseReceiveRequest{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).Preload("Items").First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Sale{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

type AdjustmentRepository interface {
	Create(ctx context.Context, adjustment *model.StockAdjustment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockAdjustment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type adjustmentRepository struct {
	db *gorm.DB
}

func NewAdjustmentRepository(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Create(ctx context.Context, adjustment *model.StockAdjustment) error {
	return GetDB(ctx, r.db).Create(adjustment).Error
}

func (r *adjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockAdjustment, error) {
	var adjustment model.StockAdjustment
	if err := GetDB(ctx, r.db).First(&adjustment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &adjustment, nil
}

func (r *adjustmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.StockAdjustment{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

type TransferRepository interface {
	Create(ctx context.Context, transfer *model.StockTransfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *model.StockTransfer) error {
	return GetDB(ctx, r.db).Create(transfer).Error
}

func (r *transferRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer model.StockTransfer
	if err := GetDB(ctx, r.db).First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.StockTransfer{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}
