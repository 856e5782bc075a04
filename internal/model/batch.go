package model

import (
	"time"

	"github.com/google/uuid"
)

// Batch is a production/receiving lot of a batch-tracked product. Identity is
// (product, number); rows are created once and never renamed.
type Batch struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_batch_product_number" json:"product_id"`
	Number      string     `gorm:"type:varchar(100);not null;uniqueIndex:uq_batch_product_number" json:"number"`
	MfgDate     *time.Time `json:"mfg_date"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsExpired reports whether the batch is past its expiry date, false when no
// expiry is recorded.
func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && now.After(*b.ExpiryDate)
}
