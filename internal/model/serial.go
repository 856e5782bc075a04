package model

import (
	"time"

	"github.com/google/uuid"
)

// SerialStatus constants
const (
	SerialStatusInStock  = "IN_STOCK"
	SerialStatusSold     = "SOLD"
	SerialStatusDamaged  = "DAMAGED"
	SerialStatusReturned = "RETURNED"
)

// SerialUnit is one individually tracked unit of a serial-tracked product.
// The serial number is unique per product. Disposal statuses are one-way;
// transfers re-home the warehouse while the unit stays IN_STOCK.
type SerialUnit struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_serial_product_number" json:"product_id"`
	SerialNumber   string     `gorm:"type:varchar(100);not null;uniqueIndex:uq_serial_product_number" json:"serial_number"`
	Status         string     `gorm:"type:varchar(20);not null;default:'IN_STOCK';index" json:"status"`
	WarehouseID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	BatchID        *uuid.UUID `gorm:"type:uuid" json:"batch_id"`
	LastMovementID *uuid.UUID `gorm:"type:uuid" json:"last_movement_id"`
	DisposedAt     *time.Time `json:"disposed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsDisposed reports whether the unit has left stock through an OUT
// disposition. Disposed units never return to IN_STOCK.
func (s *SerialUnit) IsDisposed() bool {
	return s.Status != SerialStatusInStock
}
