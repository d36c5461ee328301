package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority of a work order or maintenance request.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether the priority is one of the closed set.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// WorkOrderStatus is the lifecycle state of a work order.
type WorkOrderStatus string

const (
	WorkOrderOpen       WorkOrderStatus = "open"
	WorkOrderInProgress WorkOrderStatus = "in_progress"
	WorkOrderOnHold     WorkOrderStatus = "on_hold"
	WorkOrderCompleted  WorkOrderStatus = "completed"
)

// workOrderTransitions is the exhaustive transition table. on_hold is
// reachable only from in_progress and returns only to in_progress;
// completed is terminal.
var workOrderTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	WorkOrderOpen:       {WorkOrderInProgress},
	WorkOrderInProgress: {WorkOrderOnHold, WorkOrderCompleted},
	WorkOrderOnHold:     {WorkOrderInProgress, WorkOrderCompleted},
	WorkOrderCompleted:  {},
}

// Valid reports whether the status is one of the closed set.
func (s WorkOrderStatus) Valid() bool {
	_, ok := workOrderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the table allows s -> next.
func (s WorkOrderStatus) CanTransitionTo(next WorkOrderStatus) bool {
	for _, t := range workOrderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// WorkOrder is the unit of maintenance work.
//
// A work order has at most one origin: MaintenanceRequestID and
// PreventiveMaintenanceID are mutually exclusive. For preventive work
// orders PMDueDate records the schedule's due date at materialization
// time; the unique index over (preventive_maintenance_id, pm_due_date)
// is the scheduler's idempotency key.
//
// Soft deletion (DeletedAt/DeletedBy) is orthogonal to status. Deleted
// work orders are excluded from all normal listings but remain
// queryable by administrative tooling, and their number is never
// reused.
type WorkOrder struct {
	// ID is the unique identifier for the work order.
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// CompanyID scopes the work order to its tenant.
	CompanyID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_company_number"`
	// Number is unique per company, allocated at creation, never reused.
	Number string `gorm:"size:20;uniqueIndex:idx_company_number"`
	// Title is a short summary of the work.
	Title string `gorm:"size:200"`
	// Description provides details about the work.
	Description string `gorm:"size:3000"`
	// Priority orders work orders for dispatch.
	Priority Priority `gorm:"size:20"`
	// Status is the lifecycle state, see workOrderTransitions.
	Status WorkOrderStatus `gorm:"size:20;index"`
	// Images carries upload references inherited from the request.
	Images string `gorm:"size:3000"`

	EquipmentID *uuid.UUID `gorm:"type:uuid;index"`

	// MaintenanceRequestID is set when the order originates from a request.
	MaintenanceRequestID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	// PreventiveMaintenanceID is set when the order was materialized
	// from a recurring schedule.
	PreventiveMaintenanceID *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_pm_due"`
	// IsPreventive marks orders materialized by the scheduler.
	IsPreventive bool
	// PMDueDate is the schedule due date at materialization time.
	PMDueDate *time.Time `gorm:"uniqueIndex:idx_pm_due"`

	// AssigneeID is the primary assignee.
	AssigneeID *uuid.UUID `gorm:"type:uuid;index"`
	// SecondaryAssigneeID is the optional secondary assignee.
	SecondaryAssigneeID *uuid.UUID `gorm:"type:uuid"`

	StartDate      *time.Time
	CompletionDate *time.Time

	DeletedAt *time.Time `gorm:"index"`
	DeletedBy *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Deleted reports whether the work order carries the soft-delete marker.
func (w *WorkOrder) Deleted() bool {
	return w.DeletedAt != nil
}

// WorkOrderCounter backs per-company work order numbering. The row is
// locked for update while the next sequence value is taken, so numbers
// are unique and gapless allocation is not assumed.
type WorkOrderCounter struct {
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	NextSeq   int64
}
