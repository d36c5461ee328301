// Package controller implements the lifecycle engines of the
// maintenance core: request approval and conversion, work order
// transitions and part consumption, preventive schedule recurrence and
// materialization, and subscription billing transitions. Each service
// orchestrates repository operations inside transactions and hands
// lifecycle events to the notification dispatcher.
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
	"gorm.io/gorm"
)

// addMonthsClamped advances t by the given number of calendar months,
// clamping to the last valid day of the target month instead of
// overflowing (Jan 31 + 1 month is Feb 28/29, not Mar 2/3).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	hour, min, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// NextDueDate computes the next due date of a schedule from the given
// completion date. customDays is consulted only for the custom
// frequency and must be positive there.
func NextDueDate(frequency models.Frequency, customDays int, from time.Time) (time.Time, error) {
	switch frequency {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, 1), nil
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case models.FrequencyMonthly:
		return addMonthsClamped(from, 1), nil
	case models.FrequencyQuarterly:
		return addMonthsClamped(from, 3), nil
	case models.FrequencySemiAnnually:
		return addMonthsClamped(from, 6), nil
	case models.FrequencyAnnually:
		return addMonthsClamped(from, 12), nil
	case models.FrequencyCustom:
		if customDays <= 0 {
			return time.Time{}, fmt.Errorf("%w: custom frequency requires positive custom_frequency_days", e.ErrInvalidInput)
		}
		return from.AddDate(0, 0, customDays), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown frequency %q", e.ErrInvalidInput, frequency)
	}
}

// ScheduleService governs preventive maintenance schedules: creation,
// completion recurrence and due work order materialization.
type ScheduleService struct {
	repo       *db.Repository
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

func NewScheduleService(repo *db.Repository, dispatcher *notify.Dispatcher, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger.Named("schedule_service"),
	}
}

// CreateScheduleInput carries the fields for a new schedule.
type CreateScheduleInput struct {
	EquipmentID         uuid.UUID
	Title               string
	Description         string
	Priority            models.Priority
	Frequency           models.Frequency
	CustomFrequencyDays int
	FirstDueDate        time.Time
}

// Create validates and persists a new active schedule.
func (s *ScheduleService) Create(ctx context.Context, companyID uuid.UUID, input CreateScheduleInput) (*models.PreventiveMaintenance, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", e.ErrInvalidInput)
	}
	if !input.Frequency.Valid() {
		return nil, fmt.Errorf("%w: unknown frequency %q", e.ErrInvalidInput, input.Frequency)
	}
	if input.Frequency == models.FrequencyCustom && input.CustomFrequencyDays <= 0 {
		return nil, fmt.Errorf("%w: custom frequency requires positive custom_frequency_days", e.ErrInvalidInput)
	}
	if !input.Priority.Valid() {
		input.Priority = models.PriorityMedium
	}
	if _, err := s.repo.GetEquipment(ctx, companyID, input.EquipmentID); err != nil {
		return nil, err
	}

	schedule := &models.PreventiveMaintenance{
		ID:                  uuid.New(),
		CompanyID:           companyID,
		EquipmentID:         input.EquipmentID,
		Title:               input.Title,
		Description:         input.Description,
		Priority:            input.Priority,
		Frequency:           input.Frequency,
		CustomFrequencyDays: input.CustomFrequencyDays,
		NextDueDate:         input.FirstDueDate,
		Status:              models.ScheduleActive,
	}
	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return schedule, nil
}

// Complete records a completion on an active schedule: the completion
// date is stored and the next due date recomputed from it. Equipment
// maintenance timestamps follow in the same transaction.
func (s *ScheduleService) Complete(ctx context.Context, companyID, scheduleID uuid.UUID, completedAt time.Time) (*models.PreventiveMaintenance, error) {
	var schedule *models.PreventiveMaintenance
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		var err error
		schedule, err = completeScheduleTx(ctx, repo, companyID, scheduleID, completedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// completeScheduleTx is the transactional core of schedule completion,
// shared with the work order engine which completes the originating
// schedule when a preventive work order finishes.
func completeScheduleTx(ctx context.Context, repo *db.Repository, companyID, scheduleID uuid.UUID, completedAt time.Time) (*models.PreventiveMaintenance, error) {
	schedule, err := repo.GetSchedule(ctx, companyID, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status != models.ScheduleActive {
		return nil, fmt.Errorf("%w: schedule is %s", e.ErrInvalidStateTransition, schedule.Status)
	}

	next, err := NextDueDate(schedule.Frequency, schedule.CustomFrequencyDays, completedAt)
	if err != nil {
		return nil, err
	}

	completed := completedAt
	schedule.LastCompletedDate = &completed
	schedule.NextDueDate = next
	if err := repo.SaveSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	equipment, err := repo.GetEquipment(ctx, companyID, schedule.EquipmentID)
	if err != nil {
		return nil, err
	}
	equipment.LastMaintenance = &completed
	equipment.NextMaintenance = &next
	if err := repo.SaveEquipment(ctx, equipment); err != nil {
		return nil, fmt.Errorf("failed to save equipment: %w", err)
	}
	return schedule, nil
}

// MaterializeDue creates one open work order for every active schedule
// due as of the given time whose company subscription has not lapsed.
// Idempotent per (schedule, due date): a second sweep with an
// unchanged due date creates nothing, backed by a pre-check and the
// unique index over (preventive_maintenance_id, pm_due_date). Returns
// the number of work orders created.
func (s *ScheduleService) MaterializeDue(ctx context.Context, asOf time.Time) (int, error) {
	schedules, err := s.repo.ListDueSchedules(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list due schedules: %w", err)
	}

	created := 0
	for i := range schedules {
		schedule := schedules[i]
		materialized := false
		err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
			if _, err := repo.FindPMWorkOrder(ctx, schedule.ID, schedule.NextDueDate); err == nil {
				return nil // already materialized for this due date
			} else if !errors.Is(err, e.ErrNotFound) {
				return err
			}

			number, err := repo.NextWorkOrderNumber(ctx, schedule.CompanyID)
			if err != nil {
				return err
			}
			scheduleID := schedule.ID
			equipmentID := schedule.EquipmentID
			dueDate := schedule.NextDueDate
			order := &models.WorkOrder{
				ID:                      uuid.New(),
				CompanyID:               schedule.CompanyID,
				Number:                  number,
				Title:                   schedule.Title,
				Description:             schedule.Description,
				Priority:                schedule.Priority,
				Status:                  models.WorkOrderOpen,
				EquipmentID:             &equipmentID,
				PreventiveMaintenanceID: &scheduleID,
				IsPreventive:            true,
				PMDueDate:               &dueDate,
			}
			if err := repo.CreateWorkOrder(ctx, order); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return nil // lost the race to a concurrent sweep
				}
				return fmt.Errorf("failed to create work order: %w", err)
			}
			materialized = true

			return s.dispatcher.Dispatch(ctx, repo, notify.Event{
				Type:        notify.EventScheduleMaterialized,
				CompanyID:   schedule.CompanyID,
				Title:       "Preventive maintenance due",
				Message:     fmt.Sprintf("Work order %s created for schedule %q", order.Number, schedule.Title),
				RelatedType: "work_order",
				RelatedID:   order.ID,
			})
		})
		if err != nil {
			s.logger.Error("failed to materialize schedule",
				zap.Error(err),
				zap.String("schedule_id", schedule.ID.String()),
			)
			return created, err
		}
		// Counted only after the transaction committed: a dispatch
		// failure rolls back the work order along with everything else.
		if materialized {
			created++
		}
	}
	return created, nil
}
