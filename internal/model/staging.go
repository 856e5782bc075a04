package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Staging entity statuses. Every deferred operation starts PENDING_APPROVAL
// and moves to exactly one terminal state, mirroring its approval request.
const (
	StagingPendingApproval = "PENDING_APPROVAL"
	StagingReceived        = "RECEIVED"
	StagingConfirmed       = "CONFIRMED"
	StagingApplied         = "APPLIED"
	StagingRejected        = "REJECTED"
	StagingCancelled       = "CANCELLED"
)

// AdjustmentMethod constants
const (
	AdjustMethodIncrease = "increase"
	AdjustMethodDecrease = "decrease"
	AdjustMethodSet      = "set"
)

// EncodeSerialNumbers serializes a serial list for a jsonb column. Nil and
// empty lists both encode as an empty array.
func EncodeSerialNumbers(serials []string) string {
	if len(serials) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(serials)
	return string(b)
}

// DecodeSerialNumbers parses a jsonb serial list; invalid or empty payloads
// decode as no serials.
func DecodeSerialNumbers(raw string) []string {
	if raw == "" {
		return nil
	}
	var serials []string
	if err := json.Unmarshal([]byte(raw), &serials); err != nil {
		return nil
	}
	return serials
}

// PurchaseReceiveRequest stages an inbound purchase awaiting approval. On
// approval each item becomes one PURCHASE movement.
type PurchaseReceiveRequest struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number      string                `gorm:"type:varchar(100);uniqueIndex;not null" json:"number"`
	SupplierRef string                `gorm:"type:varchar(100)" json:"supplier_ref"`
	Status      string                `gorm:"type:varchar(30);not null;default:'PENDING_APPROVAL';index" json:"status"`
	Note        string                `gorm:"type:text" json:"note"`
	RequestedBy uuid.UUID             `gorm:"type:uuid;not null" json:"requested_by"`
	Items       []PurchaseReceiveItem `gorm:"foreignKey:RequestID" json:"items"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// PurchaseReceiveItem is one product line of a staged purchase receive.
// SerialNumbers holds a JSON string array for serial-tracked products.
type PurchaseReceiveItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null" json:"warehouse_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	BatchNumber   string          `gorm:"type:varchar(100)" json:"batch_number"`
	MfgDate       *time.Time      `json:"mfg_date"`
	ExpiryDate    *time.Time      `json:"expiry_date"`
	SerialNumbers string          `gorm:"type:jsonb;default:'[]'" json:"serial_numbers"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_cost"`
}

// Sale stages an outbound sale awaiting approval. On approval each item
// becomes one SALE movement, respecting the global negative-stock rule.
type Sale struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number      string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"number"`
	CustomerRef string     `gorm:"type:varchar(100)" json:"customer_ref"`
	Status      string     `gorm:"type:varchar(30);not null;default:'PENDING_APPROVAL';index" json:"status"`
	Note        string     `gorm:"type:text" json:"note"`
	RequestedBy uuid.UUID  `gorm:"type:uuid;not null" json:"requested_by"`
	Items       []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SaleItem is one product line of a staged sale.
type SaleItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null" json:"warehouse_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	BatchID       *uuid.UUID      `gorm:"type:uuid" json:"batch_id"`
	SerialNumbers string          `gorm:"type:jsonb;default:'[]'" json:"serial_numbers"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
}

// StockAdjustment stages a single-product adjustment awaiting approval.
type StockAdjustment struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	WarehouseID uuid.UUID        `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	BatchID     *uuid.UUID       `gorm:"type:uuid" json:"batch_id"`
	Method      string           `gorm:"type:varchar(20);not null" json:"method"`
	Reason      string           `gorm:"type:text;not null" json:"reason"`
	Quantity    *decimal.Decimal `gorm:"type:decimal(18,4)" json:"quantity"`
	NewQuantity *decimal.Decimal `gorm:"type:decimal(18,4)" json:"new_quantity"`
	Status      string           `gorm:"type:varchar(30);not null;default:'PENDING_APPROVAL';index" json:"status"`
	RequestedBy uuid.UUID        `gorm:"type:uuid;not null" json:"requested_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// StockTransfer stages a single-product warehouse transfer awaiting approval.
type StockTransfer struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	FromWarehouseID uuid.UUID       `gorm:"type:uuid;not null" json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID       `gorm:"type:uuid;not null" json:"to_warehouse_id"`
	BatchID         *uuid.UUID      `gorm:"type:uuid" json:"batch_id"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	SerialNumbers   string          `gorm:"type:jsonb;default:'[]'" json:"serial_numbers"`
	Note            string          `gorm:"type:text" json:"note"`
	Status          string          `gorm:"type:varchar(30);not null;default:'PENDING_APPROVAL';index" json:"status"`
	RequestedBy     uuid.UUID       `gorm:"type:uuid;not null" json:"requested_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
