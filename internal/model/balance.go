package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBalance is the on-hand aggregate for one (product, warehouse, batch)
// key. Quantity always equals the signed sum of the movements for the key;
// the row is written only inside the transaction that writes the movement.
type StockBalance struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_balance_key" json:"product_id"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_balance_key" json:"warehouse_id"`
	BatchID     *uuid.UUID      `gorm:"type:uuid;uniqueIndex:uq_balance_key" json:"batch_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity"`
	Reserved    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reserved"`
	Available   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"available"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
