package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationCategory classifies a notification for the client.
type NotificationCategory string

const (
	NotifyRequestApproved      NotificationCategory = "request_approved"
	NotifyRequestRejected      NotificationCategory = "request_rejected"
	NotifyNewTask              NotificationCategory = "new_task"
	NotifyTaskUpdate           NotificationCategory = "task_update"
	NotifyPMReminder           NotificationCategory = "pm_reminder"
	NotifySubscriptionExpiring NotificationCategory = "subscription_expiring"
	NotifyPartLowStock         NotificationCategory = "part_low_stock"
)

// Notification is scoped to one user of one company. Immutable after
// creation except for IsRead.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;index"`
	UserID    uuid.UUID `gorm:"type:uuid;index"`
	Category  NotificationCategory `gorm:"size:30;index"`
	Title     string               `gorm:"size:200"`
	Message   string               `gorm:"size:1000"`
	// RelatedType/RelatedID point at the entity that caused the
	// notification, when there is one.
	RelatedType string     `gorm:"size:40"`
	RelatedID   *uuid.UUID `gorm:"type:uuid"`
	IsRead      bool       `gorm:"index"`
	CreatedAt   time.Time
}
