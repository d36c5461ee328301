package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a maintenance request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestConverted RequestStatus = "converted_to_work_order"
)

// requestTransitions is the exhaustive transition table. rejected and
// converted_to_work_order are terminal; a rejected request cannot be
// resubmitted, a new one must be raised.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:   {RequestApproved, RequestRejected},
	RequestApproved:  {RequestConverted},
	RequestRejected:  {},
	RequestConverted: {},
}

// Valid reports whether the status is one of the closed set.
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// CanTransitionTo reports whether the table allows s -> next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, t := range requestTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// MaintenanceRequest is raised by a requester, optionally against a
// piece of equipment. At most one work order results from a request;
// the link is materialized as WorkOrder.MaintenanceRequestID.
type MaintenanceRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;index"`
	EquipmentID *uuid.UUID `gorm:"type:uuid;index"`
	RequesterID uuid.UUID  `gorm:"type:uuid;index"`
	Title       string     `gorm:"size:200"`
	Description string     `gorm:"size:3000"`
	Priority    Priority   `gorm:"size:20"`
	Images      string     `gorm:"size:3000"` // JSON array of upload references
	Status      RequestStatus `gorm:"size:30;index"`

	ApproverID      *uuid.UUID `gorm:"type:uuid"`
	ApprovalDate    *time.Time
	RejectionReason string `gorm:"size:1000"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
