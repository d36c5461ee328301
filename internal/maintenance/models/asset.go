package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is tenant-scoped reference data.
type Location struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;index"`
	Name      string    `gorm:"size:120"`
	Address   string    `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EquipmentStatus is the operational state of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentRunning      EquipmentStatus = "running"
	EquipmentMaintenance  EquipmentStatus = "maintenance"
	EquipmentOutOfService EquipmentStatus = "out_of_service"
	EquipmentStandby      EquipmentStatus = "standby"
)

// Valid reports whether the status is one of the closed set.
func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentRunning, EquipmentMaintenance, EquipmentOutOfService, EquipmentStandby:
		return true
	}
	return false
}

// Equipment is a maintainable asset, optionally placed at a location.
// LastMaintenance/NextMaintenance are kept in sync by the preventive
// schedule engine on schedule completion.
type Equipment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;index"`
	LocationID      *uuid.UUID `gorm:"type:uuid;index"`
	Name            string     `gorm:"size:120"`
	Model           string     `gorm:"size:120"`
	SerialNumber    string     `gorm:"size:120"`
	Status          EquipmentStatus `gorm:"size:20"`
	LastMaintenance *time.Time
	NextMaintenance *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
