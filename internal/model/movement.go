package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementDirection enum simulation
const (
	DirectionIn          = "IN"
	DirectionOut         = "OUT"
	DirectionTransferIn  = "TRANSFER_IN"
	DirectionTransferOut = "TRANSFER_OUT"
	DirectionAdjustment  = "ADJUSTMENT"
)

// ReferenceKind constants classify what caused a movement
const (
	RefKindPurchase   = "PURCHASE"
	RefKindSale       = "SALE"
	RefKindTransfer   = "TRANSFER"
	RefKindAdjustment = "ADJUSTMENT"
	RefKindManual     = "MANUAL"
)

// StockMovement is one immutable ledger entry. Rows are only ever inserted,
// exclusively by the stock service; balances are derived from their signed sum.
// For transfers the two paired rows share ReferenceID as correlation id and
// record the opposite warehouse in CounterpartWarehouseID.
type StockMovement struct {
	ID                     uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID              uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_key" json:"product_id"`
	WarehouseID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_key" json:"warehouse_id"`
	BatchID                *uuid.UUID      `gorm:"type:uuid;index:idx_movements_key" json:"batch_id"`
	Direction              string          `gorm:"type:varchar(20);not null" json:"direction"`
	Quantity               decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	ReferenceKind          string          `gorm:"type:varchar(20);not null;index" json:"reference_kind"`
	ReferenceID            *uuid.UUID      `gorm:"type:uuid;index" json:"reference_id"`
	ReferenceNumber        string          `gorm:"type:varchar(100)" json:"reference_number"`
	CounterpartWarehouseID *uuid.UUID      `gorm:"type:uuid" json:"counterpart_warehouse_id"`
	Note                   string          `gorm:"type:text" json:"note"`
	ActorID                *uuid.UUID      `gorm:"type:uuid" json:"actor_id"`
	SerialCount            int             `gorm:"not null;default:0" json:"serial_count"`
	CreatedAt              time.Time       `gorm:"index" json:"created_at"`
}

// IsInbound reports whether the movement adds to the balance of its key.
func (m *StockMovement) IsInbound() bool {
	return m.Direction == DirectionIn || m.Direction == DirectionTransferIn
}

// SignedQuantity returns the quantity with the sign implied by direction.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.IsInbound() {
		return m.Quantity
	}
	return m.Quantity.Neg()
}
