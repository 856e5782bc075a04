package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents an item in the inventory. Master-data CRUD lives in the
// admin service; the core only reads products for existence and tracking mode.
type Product struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU             string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Unit            string         `gorm:"type:varchar(20);not null;default:'pcs'" json:"unit"`
	IsBatchTracked  bool           `gorm:"not null;default:false" json:"is_batch_tracked"`
	IsSerialTracked bool           `gorm:"not null;default:false" json:"is_serial_tracked"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Warehouse represents a physical storage site holding stock balances.
type Warehouse struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InventoryRule holds the global inventory behaviour switches. A single row
// is expected; AllowNegativeStock is the default for operations that do not
// pass an explicit override.
type InventoryRule struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AllowNegativeStock bool      `gorm:"not null;default:false" json:"allow_negative_stock"`
	UpdatedAt          time.Time `json:"updated_at"`
}
