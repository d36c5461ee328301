package models

import (
	"time"

	"github.com/google/uuid"
)

// Frequency of a preventive maintenance schedule.
type Frequency string

const (
	FrequencyDaily        Frequency = "daily"
	FrequencyWeekly       Frequency = "weekly"
	FrequencyMonthly      Frequency = "monthly"
	FrequencyQuarterly    Frequency = "quarterly"
	FrequencySemiAnnually Frequency = "semi_annually"
	FrequencyAnnually     Frequency = "annually"
	FrequencyCustom       Frequency = "custom"
)

// Valid reports whether the frequency is one of the closed set.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly,
		FrequencySemiAnnually, FrequencyAnnually, FrequencyCustom:
		return true
	}
	return false
}

// ScheduleStatus is the state of a preventive maintenance schedule.
type ScheduleStatus string

const (
	ScheduleActive   ScheduleStatus = "active"
	ScheduleInactive ScheduleStatus = "inactive"
)

// PreventiveMaintenance is a recurring schedule attached to one piece
// of equipment. NextDueDate is recomputed from the completion date on
// every completion and never decremented; when LastCompletedDate is
// set, NextDueDate >= LastCompletedDate holds.
type PreventiveMaintenance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID `gorm:"type:uuid;index"`
	EquipmentID uuid.UUID `gorm:"type:uuid;index"`
	Title       string    `gorm:"size:200"`
	Description string    `gorm:"size:3000"`
	Priority    Priority  `gorm:"size:20"`
	Frequency   Frequency `gorm:"size:20"`
	// CustomFrequencyDays is required and > 0 iff Frequency is custom.
	CustomFrequencyDays int
	NextDueDate         time.Time `gorm:"index"`
	LastCompletedDate   *time.Time
	Status              ScheduleStatus `gorm:"size:20;index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
