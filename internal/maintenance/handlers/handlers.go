// Package handlers exposes the lifecycle operations over HTTP. The
// layer is thin: binding, actor scoping and error mapping; every rule
// lives in the controller services.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/auth"
	"github.com/mzeldin/upkeep/internal/maintenance/controller"
	"github.com/mzeldin/upkeep/internal/maintenance/db"
	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	requests      *controller.RequestService
	workOrders    *controller.WorkOrderService
	schedules     *controller.ScheduleService
	subscriptions *controller.SubscriptionService
	repo          *db.Repository
	logger        *zap.Logger
}

func NewHandler(
	requests *controller.RequestService,
	workOrders *controller.WorkOrderService,
	schedules *controller.ScheduleService,
	subscriptions *controller.SubscriptionService,
	repo *db.Repository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		requests:      requests,
		workOrders:    workOrders,
		schedules:     schedules,
		subscriptions: subscriptions,
		repo:          repo,
		logger:        logger.Named("http_handler"),
	}
}

// respondError maps the domain failure taxonomy onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, e.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, e.ErrInvalidStateTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrInsufficientInventory):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

type createRequestBody struct {
	EquipmentID *uuid.UUID      `json:"equipment_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	Images      string          `json:"images"`
}

func (h *Handler) CreateRequest(c *gin.Context) {
	actor := auth.ActorFrom(c)
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.requests.Create(c.Request.Context(), actor.CompanyID, controller.CreateRequestInput{
		EquipmentID: body.EquipmentID,
		RequesterID: actor.UserID,
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		Images:      body.Images,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *Handler) ApproveRequest(c *gin.Context) {
	actor := auth.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	request, err := h.requests.Approve(c.Request.Context(), actor.CompanyID, id, actor.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type rejectRequestBody struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectRequest(c *gin.Context) {
	actor := auth.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body rejectRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request, err := h.requests.Reject(c.Request.Context(), actor.CompanyID, id, actor.UserID, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type convertRequestBody struct {
	AssigneeID uuid.UUID `json:"assignee_id"`
}

func (h *Handler) ConvertRequest(c *gin.Context) {
	actor := auth.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body convertRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.requests.Convert(c.Request.Context(), actor.CompanyID, id, body.AssigneeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type createWorkOrderBody struct {
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Priority            models.Priority `json:"priority"`
	EquipmentID         *uuid.UUID      `json:"equipment_id"`
	AssigneeID          *uuid.UUID      `json:"assignee_id"`
	SecondaryAssigneeID *uuid.UUID      `json:"secondary_assignee_id"`
}

func (h *Handler) CreateWorkOrder(c *gin.Context) {
	actor := auth.ActorFrom(c)
	var body createWorkOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.workOrders.Create(c.Request.Context(), actor.CompanyID, controller.CreateWorkOrderInput{
		Title:               body.Title,
		Description:         body.Description,
		Priority:            body.Priority,
		EquipmentID:         body.EquipmentID,
		AssigneeID:          body.AssigneeID,
		SecondaryAssigneeID: body.SecondaryAssigneeID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type transitionBody struct {
	Status models.WorkOrderStatus `json:"status"`
	At     *time.Time             `json:"at"`
}

func (h *Handler) TransitionWorkOrder(c *gin.Context) {
	actor := auth.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body transitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.workOrders.Transition(c.Request.Context(), actor.CompanyID, id, body.Status, actor.UserID, body.At)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type attachPartBody struct {
	StorePartID uuid.UUID `json:"store_part_id"`
	Quantity    int       `json:"quantity"`
}

func (h *Handler) AttachPart(c *gin.Context) {
	actor := auth.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body attachPartBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.workOrders.AttachPart(c.Request.Context(), actor.CompanyID, id, body.StorePartID, body.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (h *Handler) DeleteWorkOrder(c *gin.Context) {
	actor := auth.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.workOrders.SoftDelete(c.Request.Context(), actor.CompanyID, id, actor.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createScheduleBody struct {
	EquipmentID         uuid.UUID        `json:"equipment_id"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Priority            models.Priority  `json:"priority"`
	Frequency           models.Frequency `json:"frequency"`
	CustomFrequencyDays int              `json:"custom_frequency_days"`
	FirstDueDate        time.Time        `json:"first_due_date"`
}

func (h *Handler) CreateSchedule(c *gin.Context) {
	actor := auth.ActorFrom(c)
	var body createScheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedule, err := h.schedules.Create(c.Request.Context(), actor.CompanyID, controller.CreateScheduleInput{
		EquipmentID:         body.EquipmentID,
		Title:               body.Title,
		Description:         body.Description,
		Priority:            body.Priority,
		Frequency:           body.Frequency,
		CustomFrequencyDays: body.CustomFrequencyDays,
		FirstDueDate:        body.FirstDueDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

type completeScheduleBody struct {
	CompletedAt *time.Time `json:"completed_at"`
}

func (h *Handler) CompleteSchedule(c *gin.Context) {
	actor := auth.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body completeScheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	completedAt := time.Now()
	if body.CompletedAt != nil {
		completedAt = *body.CompletedAt
	}
	schedule, err := h.schedules.Complete(c.Request.Context(), actor.CompanyID, id, completedAt)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

type billingEventBody struct {
	EventType     models.BillingEventType `json:"event_type"`
	EffectiveDate *time.Time              `json:"effective_date"`
}

func (h *Handler) ApplyBillingEvent(c *gin.Context) {
	actor := auth.ActorFrom(c)
	var body billingEventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	effective := time.Now()
	if body.EffectiveDate != nil {
		effective = *body.EffectiveDate
	}
	sub, err := h.subscriptions.ApplyBillingEvent(c.Request.Context(), actor.CompanyID, body.EventType, effective)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) ListNotifications(c *gin.Context) {
	actor := auth.ActorFrom(c)
	notifications, err := h.repo.ListNotifications(c.Request.Context(), actor.CompanyID, actor.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	actor := auth.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.repo.MarkNotificationRead(c.Request.Context(), actor.CompanyID, actor.UserID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
