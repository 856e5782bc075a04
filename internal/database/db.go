package database

import (
	"inventory-portal/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	// TranslateError surfaces unique violations as gorm.ErrDuplicatedKey,
	// which the approval service relies on for the pending-request race.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Product{},
		&model.Warehouse{},
		&model.InventoryRule{},
		&model.Batch{},
		&model.SerialUnit{},
		&model.StockMovement{},
		&model.StockBalance{},
		&model.ApprovalRequest{},
		&model.ApprovalPolicy{},
		&model.PurchaseReceiveRequest{},
		&model.PurchaseReceiveItem{},
		&model.Sale{},
		&model.SaleItem{},
		&model.StockAdjustment{},
		&model.StockTransfer{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}
