package models

import (
	"time"

	"github.com/google/uuid"
)

// StorePart is a tenant-scoped inventory item. Quantity never goes
// negative: consumption that would overdraw is rejected, not clamped.
type StorePart struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;index"`
	Name      string    `gorm:"size:120"`
	PartNumber string   `gorm:"size:60"`
	Quantity  int       `gorm:"check:quantity >= 0"`
	// MinQuantity overrides the configured low-stock threshold for this
	// part. Zero means use the configured default.
	MinQuantity int
	UnitCost    float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkOrderPart records consumption of a store part by a work order.
// Creating or incrementing a row decrements the part's quantity in the
// same transaction.
type WorkOrderPart struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID `gorm:"type:uuid;index"`
	WorkOrderID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_wo_part"`
	StorePartID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_wo_part"`
	Quantity    int       `gorm:"check:quantity > 0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
