package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/db"
	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/mzeldin/upkeep/internal/maintenance/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestService governs the maintenance request lifecycle: approval,
// rejection and conversion into a work order. Approval and conversion
// are separate steps; an approved request may await manual conversion.
type RequestService struct {
	repo       *db.Repository
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

func NewRequestService(repo *db.Repository, dispatcher *notify.Dispatcher, logger *zap.Logger) *RequestService {
	return &RequestService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger.Named("request_service"),
	}
}

// CreateRequestInput carries the fields for a new request.
type CreateRequestInput struct {
	EquipmentID *uuid.UUID
	RequesterID uuid.UUID
	Title       string
	Description string
	Priority    models.Priority
	Images      string
}

// Create validates and persists a new pending request.
func (s *RequestService) Create(ctx context.Context, companyID uuid.UUID, input CreateRequestInput) (*models.MaintenanceRequest, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", e.ErrInvalidInput)
	}
	if !input.Priority.Valid() {
		input.Priority = models.PriorityMedium
	}
	if input.EquipmentID != nil {
		if _, err := s.repo.GetEquipment(ctx, companyID, *input.EquipmentID); err != nil {
			return nil, err
		}
	}

	request := &models.MaintenanceRequest{
		ID:          uuid.New(),
		CompanyID:   companyID,
		EquipmentID: input.EquipmentID,
		RequesterID: input.RequesterID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Images:      input.Images,
		Status:      models.RequestPending,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return request, nil
}

// Approve moves a pending request to approved and notifies the
// requester. It does not create a work order.
func (s *RequestService) Approve(ctx context.Context, companyID, requestID, approverID uuid.UUID) (*models.MaintenanceRequest, error) {
	var request *models.MaintenanceRequest
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		var err error
		request, err = repo.GetRequest(ctx, companyID, requestID)
		if err != nil {
			return err
		}
		if !request.Status.CanTransitionTo(models.RequestApproved) {
			return fmt.Errorf("%w: request is %s", e.ErrInvalidStateTransition, request.Status)
		}

		now := time.Now()
		approver := approverID
		request.Status = models.RequestApproved
		request.ApprovalDate = &now
		request.ApproverID = &approver
		if err := repo.SaveRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}

		requester := request.RequesterID
		return s.dispatcher.Dispatch(ctx, repo, notify.Event{
			Type:        notify.EventRequestApproved,
			CompanyID:   companyID,
			Title:       "Request approved",
			Message:     fmt.Sprintf("Your maintenance request %q was approved", request.Title),
			RelatedType: "maintenance_request",
			RelatedID:   request.ID,
			RequesterID: &requester,
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Reject moves a pending request to rejected. A reason is required;
// rejected is terminal.
func (s *RequestService) Reject(ctx context.Context, companyID, requestID, approverID uuid.UUID, reason string) (*models.MaintenanceRequest, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", e.ErrInvalidInput)
	}

	var request *models.MaintenanceRequest
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		var err error
		request, err = repo.GetRequest(ctx, companyID, requestID)
		if err != nil {
			return err
		}
		if !request.Status.CanTransitionTo(models.RequestRejected) {
			return fmt.Errorf("%w: request is %s", e.ErrInvalidStateTransition, request.Status)
		}

		approver := approverID
		request.Status = models.RequestRejected
		request.ApproverID = &approver
		request.RejectionReason = reason
		if err := repo.SaveRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}

		requester := request.RequesterID
		return s.dispatcher.Dispatch(ctx, repo, notify.Event{
			Type:        notify.EventRequestRejected,
			CompanyID:   companyID,
			Title:       "Request rejected",
			Message:     fmt.Sprintf("Your maintenance request %q was rejected: %s", request.Title, reason),
			RelatedType: "maintenance_request",
			RelatedID:   request.ID,
			RequesterID: &requester,
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Convert turns an approved request into an open work order. The
// status flip and the work order creation commit together or not at
// all. The work order inherits title, description, priority, images
// and equipment from the request and links back to it.
func (s *RequestService) Convert(ctx context.Context, companyID, requestID, assigneeID uuid.UUID) (*models.WorkOrder, error) {
	var order *models.WorkOrder
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		request, err := repo.GetRequest(ctx, companyID, requestID)
		if err != nil {
			return err
		}
		if !request.Status.CanTransitionTo(models.RequestConverted) {
			return fmt.Errorf("%w: request is %s", e.ErrInvalidStateTransition, request.Status)
		}
		if _, err := repo.GetUser(ctx, companyID, assigneeID); err != nil {
			return fmt.Errorf("assignee: %w", err)
		}

		number, err := repo.NextWorkOrderNumber(ctx, companyID)
		if err != nil {
			return err
		}

		reqID := request.ID
		assignee := assigneeID
		order = &models.WorkOrder{
			ID:                   uuid.New(),
			CompanyID:            companyID,
			Number:               number,
			Title:                request.Title,
			Description:          request.Description,
			Priority:             request.Priority,
			Status:               models.WorkOrderOpen,
			Images:               request.Images,
			EquipmentID:          request.EquipmentID,
			MaintenanceRequestID: &reqID,
			AssigneeID:           &assignee,
		}
		if err := repo.CreateWorkOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create work order: %w", err)
		}

		request.Status = models.RequestConverted
		if err := repo.SaveRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}

		return s.dispatcher.Dispatch(ctx, repo, notify.Event{
			Type:        notify.EventWorkOrderAssigned,
			CompanyID:   companyID,
			Title:       "New task assigned",
			Message:     fmt.Sprintf("Work order %s: %s", order.Number, order.Title),
			RelatedType: "work_order",
			RelatedID:   order.ID,
			AssigneeIDs: []uuid.UUID{assigneeID},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
