package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/db"
	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/mzeldin/upkeep/internal/maintenance/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkOrderService governs the work order lifecycle: creation with
// per-company numbering, status transitions, part consumption and soft
// deletion.
type WorkOrderService struct {
	repo       *db.Repository
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	// lowStockDefault is the configured low-stock floor used when a
	// part carries no MinQuantity override. Zero disables low-stock
	// notifications.
	lowStockDefault int
}

func NewWorkOrderService(repo *db.Repository, dispatcher *notify.Dispatcher, logger *zap.Logger, lowStockDefault int) *WorkOrderService {
	return &WorkOrderService{
		repo:            repo,
		dispatcher:      dispatcher,
		logger:          logger.Named("work_order_service"),
		lowStockDefault: lowStockDefault,
	}
}

// CreateWorkOrderInput carries the fields for a manually created work
// order (one without a request or schedule origin).
type CreateWorkOrderInput struct {
	Title               string
	Description         string
	Priority            models.Priority
	EquipmentID         *uuid.UUID
	AssigneeID          *uuid.UUID
	SecondaryAssigneeID *uuid.UUID
}

// Create validates scope of the referenced entities, allocates the
// company-unique number and persists an open work order.
func (s *WorkOrderService) Create(ctx context.Context, companyID uuid.UUID, input CreateWorkOrderInput) (*models.WorkOrder, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", e.ErrInvalidInput)
	}
	if !input.Priority.Valid() {
		input.Priority = models.PriorityMedium
	}

	var order *models.WorkOrder
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		if input.EquipmentID != nil {
			if _, err := repo.GetEquipment(ctx, companyID, *input.EquipmentID); err != nil {
				return err
			}
		}
		for _, assignee := range []*uuid.UUID{input.AssigneeID, input.SecondaryAssigneeID} {
			if assignee != nil {
				if _, err := repo.GetUser(ctx, companyID, *assignee); err != nil {
					return fmt.Errorf("assignee: %w", err)
				}
			}
		}

		number, err := repo.NextWorkOrderNumber(ctx, companyID)
		if err != nil {
			return err
		}

		order = &models.WorkOrder{
			ID:                  uuid.New(),
			CompanyID:           companyID,
			Number:              number,
			Title:               input.Title,
			Description:         input.Description,
			Priority:            input.Priority,
			Status:              models.WorkOrderOpen,
			EquipmentID:         input.EquipmentID,
			AssigneeID:          input.AssigneeID,
			SecondaryAssigneeID: input.SecondaryAssigneeID,
		}
		if err := repo.CreateWorkOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create work order: %w", err)
		}

		if input.AssigneeID == nil {
			return nil
		}
		return s.dispatcher.Dispatch(ctx, repo, notify.Event{
			Type:        notify.EventWorkOrderAssigned,
			CompanyID:   companyID,
			Title:       "New task assigned",
			Message:     fmt.Sprintf("Work order %s: %s", order.Number, order.Title),
			RelatedType: "work_order",
			RelatedID:   order.ID,
			AssigneeIDs: assigneeList(order),
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func assigneeList(order *models.WorkOrder) []uuid.UUID {
	var ids []uuid.UUID
	if order.AssigneeID != nil {
		ids = append(ids, *order.AssigneeID)
	}
	if order.SecondaryAssigneeID != nil {
		ids = append(ids, *order.SecondaryAssigneeID)
	}
	return ids
}

// Transition moves a work order to the target status per the
// transition table. Completing a preventive work order completes the
// originating schedule with the same completion date, in the same
// transaction. at overrides the start/completion timestamp and
// defaults to now.
func (s *WorkOrderService) Transition(ctx context.Context, companyID, orderID uuid.UUID, target models.WorkOrderStatus, actorID uuid.UUID, at *time.Time) (*models.WorkOrder, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", e.ErrInvalidInput, target)
	}

	var order *models.WorkOrder
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		var err error
		order, err = repo.GetWorkOrder(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", e.ErrInvalidStateTransition, order.Status, target)
		}

		when := time.Now()
		if at != nil {
			when = *at
		}

		switch target {
		case models.WorkOrderInProgress:
			if order.Status == models.WorkOrderOpen && order.StartDate == nil {
				order.StartDate = &when
			}
		case models.WorkOrderCompleted:
			order.CompletionDate = &when
			if order.PreventiveMaintenanceID != nil {
				if _, err := completeScheduleTx(ctx, repo, companyID, *order.PreventiveMaintenanceID, when); err != nil {
					return err
				}
			}
		}
		order.Status = target
		if err := repo.SaveWorkOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to save work order: %w", err)
		}

		event := notify.Event{
			Type:        notify.EventWorkOrderStatusChanged,
			CompanyID:   companyID,
			Title:       "Task updated",
			Message:     fmt.Sprintf("Work order %s is now %s", order.Number, target),
			RelatedType: "work_order",
			RelatedID:   order.ID,
			AssigneeIDs: assigneeList(order),
		}
		if order.MaintenanceRequestID != nil {
			request, err := repo.GetRequest(ctx, companyID, *order.MaintenanceRequestID)
			if err != nil {
				return err
			}
			requester := request.RequesterID
			event.RequesterID = &requester
		}
		return s.dispatcher.Dispatch(ctx, repo, event)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AttachPart consumes quantity units of a store part for a work order.
// The stock row is locked for the read-check-decrement sequence, so
// two concurrent attachments cannot both pass the sufficiency check
// against a stale quantity. Over-consumption is rejected, never
// clamped. A successful decrement that lands below the low-stock floor
// notifies admins and supervisors.
func (s *WorkOrderService) AttachPart(ctx context.Context, companyID, orderID, partID uuid.UUID, quantity int) (*models.WorkOrderPart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", e.ErrInvalidInput)
	}

	var row *models.WorkOrderPart
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		order, err := repo.GetWorkOrder(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.WorkOrderCompleted {
			return fmt.Errorf("%w: work order is completed", e.ErrInvalidStateTransition)
		}

		part, err := repo.GetStorePartForUpdate(ctx, companyID, partID)
		if err != nil {
			return err
		}
		if part.Quantity < quantity {
			return fmt.Errorf("%w: %d requested, %d available", e.ErrInsufficientInventory, quantity, part.Quantity)
		}

		part.Quantity -= quantity
		if err := repo.SaveStorePart(ctx, part); err != nil {
			return fmt.Errorf("failed to save part: %w", err)
		}

		row, err = repo.GetWorkOrderPart(ctx, order.ID, part.ID)
		switch {
		case err == nil:
			row.Quantity += quantity
			if err := repo.SaveWorkOrderPart(ctx, row); err != nil {
				return fmt.Errorf("failed to save work order part: %w", err)
			}
		case errors.Is(err, e.ErrNotFound):
			row = &models.WorkOrderPart{
				ID:          uuid.New(),
				CompanyID:   companyID,
				WorkOrderID: order.ID,
				StorePartID: part.ID,
				Quantity:    quantity,
			}
			if err := repo.CreateWorkOrderPart(ctx, row); err != nil {
				return fmt.Errorf("failed to create work order part: %w", err)
			}
		default:
			return err
		}

		threshold := part.MinQuantity
		if threshold == 0 {
			threshold = s.lowStockDefault
		}
		if threshold > 0 && part.Quantity < threshold {
			return s.dispatcher.Dispatch(ctx, repo, notify.Event{
				Type:        notify.EventPartLowStock,
				CompanyID:   companyID,
				Title:       "Part low on stock",
				Message:     fmt.Sprintf("Part %q is down to %d units", part.Name, part.Quantity),
				RelatedType: "store_part",
				RelatedID:   part.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// SoftDelete marks the work order deleted. Orthogonal to status; the
// record stays for administrative tooling and its number is never
// reused.
func (s *WorkOrderService) SoftDelete(ctx context.Context, companyID, orderID, actorID uuid.UUID) error {
	return s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		order, err := repo.GetWorkOrder(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		now := time.Now()
		actor := actorID
		order.DeletedAt = &now
		order.DeletedBy = &actor
		if err := repo.SaveWorkOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to save work order: %w", err)
		}
		return nil
	})
}
