package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalEntityType enum constants, one per deferred stock operation.
const (
	ApprovalEntityPurchaseReceive = "PURCHASE_RECEIVE"
	ApprovalEntitySale            = "SALE"
	ApprovalEntityStockAdjustment = "STOCK_ADJUSTMENT"
	ApprovalEntityStockTransfer   = "STOCK_TRANSFER"
)

// ApprovalStatus constants
const (
	ApprovalPending   = "PENDING"
	ApprovalApproved  = "APPROVED"
	ApprovalRejected  = "REJECTED"
	ApprovalCancelled = "CANCELLED"
)

// ApprovalRequest gates execution of a deferred stock operation. At most one
// PENDING request may exist per (EntityType, EntityID), backed by a partial
// unique index over PENDING rows; terminal states are final.
type ApprovalRequest struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntityType     string     `gorm:"type:varchar(30);not null;index:idx_approval_entity;uniqueIndex:uq_pending_request,where:status = 'PENDING'" json:"entity_type"`
	EntityID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_approval_entity;uniqueIndex:uq_pending_request,where:status = 'PENDING'" json:"entity_id"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedBy    uuid.UUID  `gorm:"type:uuid;not null;index" json:"requested_by"`
	ReviewedBy     *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
	RequestComment string     `gorm:"type:text" json:"request_comment"`
	ReviewComment  string     `gorm:"type:text" json:"review_comment"`
	Metadata       string     `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the request has reached a final state.
func (a *ApprovalRequest) IsTerminal() bool {
	return a.Status != ApprovalPending
}

// ApprovalPolicy decides whether an entity type must go through approval.
// MinAmount and WarehouseID narrow the policy; nil means the policy applies
// to any amount / any warehouse.
type ApprovalPolicy struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntityType  string           `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	Enabled     bool             `gorm:"not null;default:true" json:"enabled"`
	MinAmount   *decimal.Decimal `gorm:"type:decimal(18,4)" json:"min_amount"`
	WarehouseID *uuid.UUID       `gorm:"type:uuid" json:"warehouse_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
