// Package notify turns lifecycle events into notification records.
// Whether an event occurred is decided by the lifecycle engines; this
// package only decides who hears about it and with what category.
package notify

import (
	"context"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/db"
	"github.com/mzeldin/upkeep/internal/maintenance/events"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType classifies a lifecycle event for routing.
type EventType string

const (
	EventRequestApproved        EventType = "request_approved"
	EventRequestRejected        EventType = "request_rejected"
	EventWorkOrderAssigned      EventType = "work_order_assigned"
	EventWorkOrderStatusChanged EventType = "work_order_status_changed"
	EventScheduleMaterialized   EventType = "schedule_materialized"
	EventScheduleDueSoon        EventType = "schedule_due_soon"
	EventSubscriptionExpiring   EventType = "subscription_expiring"
	EventPartLowStock           EventType = "part_low_stock"
)

// Event is a lifecycle event with the direct actors already resolved
// by the emitting engine. Role-based recipients (admins, supervisors)
// are resolved by the dispatcher.
type Event struct {
	Type        EventType
	CompanyID   uuid.UUID
	Title       string
	Message     string
	RelatedType string
	RelatedID   uuid.UUID
	// RequesterID receives request outcome and task update events.
	RequesterID *uuid.UUID
	// AssigneeIDs receive task events.
	AssigneeIDs []uuid.UUID
}

// categories maps event type to notification category.
var categories = map[EventType]models.NotificationCategory{
	EventRequestApproved:        models.NotifyRequestApproved,
	EventRequestRejected:        models.NotifyRequestRejected,
	EventWorkOrderAssigned:      models.NotifyNewTask,
	EventWorkOrderStatusChanged: models.NotifyTaskUpdate,
	EventScheduleMaterialized:   models.NotifyPMReminder,
	EventScheduleDueSoon:        models.NotifyPMReminder,
	EventSubscriptionExpiring:   models.NotifySubscriptionExpiring,
	EventPartLowStock:           models.NotifyPartLowStock,
}

// roleGroups maps event type to the roles notified in addition to the
// direct actors carried on the event.
var roleGroups = map[EventType][]models.Role{
	EventScheduleMaterialized: {models.RoleSupervisor},
	EventScheduleDueSoon:      {models.RoleSupervisor},
	EventSubscriptionExpiring: {models.RoleAdmin},
	EventPartLowStock:         {models.RoleAdmin, models.RoleSupervisor},
}

// directRecipients returns the actor IDs the event itself names.
func directRecipients(event Event) []uuid.UUID {
	var ids []uuid.UUID
	switch event.Type {
	case EventRequestApproved, EventRequestRejected:
		if event.RequesterID != nil {
			ids = append(ids, *event.RequesterID)
		}
	case EventWorkOrderAssigned:
		ids = append(ids, event.AssigneeIDs...)
	case EventWorkOrderStatusChanged:
		ids = append(ids, event.AssigneeIDs...)
		if event.RequesterID != nil {
			ids = append(ids, *event.RequesterID)
		}
	}
	return ids
}

// Route builds the notification records for an event given the
// resolved role-group users. Pure: no store access, no clock beyond
// now. Every notification starts unread.
func Route(event Event, roleUsers []models.User, now time.Time) []models.Notification {
	category, ok := categories[event.Type]
	if !ok {
		return nil
	}

	seen := make(map[uuid.UUID]bool)
	var recipients []uuid.UUID
	for _, id := range directRecipients(event) {
		if !seen[id] {
			seen[id] = true
			recipients = append(recipients, id)
		}
	}
	for _, u := range roleUsers {
		if !seen[u.ID] {
			seen[u.ID] = true
			recipients = append(recipients, u.ID)
		}
	}

	notifications := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		n := models.Notification{
			ID:        uuid.New(),
			CompanyID: event.CompanyID,
			UserID:    userID,
			Category:  category,
			Title:     event.Title,
			Message:   event.Message,
			CreatedAt: now,
		}
		if event.RelatedID != uuid.Nil {
			n.RelatedType = event.RelatedType
			related := event.RelatedID
			n.RelatedID = &related
		}
		notifications = append(notifications, n)
	}
	return notifications
}

// EventProducer is the downstream delivery hook, satisfied by
// events.Producer.
type EventProducer interface {
	Produce(event events.Event)
}

// Dispatcher resolves recipients, persists notification records and
// hands the event to the producer for downstream delivery.
type Dispatcher struct {
	producer EventProducer
	logger   *zap.Logger
}

func NewDispatcher(producer EventProducer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		producer: producer,
		logger:   logger.Named("notify_dispatcher"),
	}
}

// Dispatch persists the routed notifications through repo — pass the
// transactional repository so the records commit with the triggering
// state change — and enqueues the event for downstream delivery.
// Downstream failure never propagates.
func (d *Dispatcher) Dispatch(ctx context.Context, repo *db.Repository, event Event) error {
	var roleUsers []models.User
	if roles, ok := roleGroups[event.Type]; ok {
		var err error
		roleUsers, err = repo.ListUsersByRoles(ctx, event.CompanyID, roles...)
		if err != nil {
			return err
		}
	}

	notifications := Route(event, roleUsers, time.Now())
	if err := repo.CreateNotifications(ctx, notifications); err != nil {
		return err
	}

	if d.producer != nil {
		d.producer.Produce(events.Event{
			Type:        string(event.Type),
			CompanyID:   event.CompanyID.String(),
			RelatedType: event.RelatedType,
			RelatedID:   event.RelatedID.String(),
			OccurredAt:  time.Now(),
		})
	}
	return nil
}
