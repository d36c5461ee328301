package db

import (
	"context"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateSchedule(ctx context.Context, schedule *models.PreventiveMaintenance) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *Repository) GetSchedule(ctx context.Context, companyID, id uuid.UUID) (*models.PreventiveMaintenance, error) {
	var schedule models.PreventiveMaintenance
	result := r.db.WithContext(ctx).First(&schedule, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &schedule, nil
}

func (r *Repository) SaveSchedule(ctx context.Context, schedule *models.PreventiveMaintenance) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}

// ListDueSchedules returns active schedules across all tenants whose
// next due date has arrived, excluding companies whose subscription
// has lapsed. The scheduler tick is a platform-level sweep, so this is
// the one read that is not company-parameterized.
func (r *Repository) ListDueSchedules(ctx context.Context, asOf time.Time) ([]models.PreventiveMaintenance, error) {
	var schedules []models.PreventiveMaintenance
	result := r.db.WithContext(ctx).
		Joins("JOIN companies ON companies.id = preventive_maintenances.company_id").
		Where("preventive_maintenances.status = ?", models.ScheduleActive).
		Where("preventive_maintenances.next_due_date <= ?", asOf).
		Where("companies.subscription_status NOT IN ?", []models.SubscriptionStatus{
			models.SubscriptionExpired, models.SubscriptionCancelled,
		}).
		Order("preventive_maintenances.next_due_date").
		Find(&schedules)
	return schedules, result.Error
}
