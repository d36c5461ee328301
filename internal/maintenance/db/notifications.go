package db

import (
	"context"

	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
)

// CreateNotifications persists a batch of notifications. The batch is
// what the dispatcher routed for a single lifecycle event.
func (r *Repository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *Repository) ListNotifications(ctx context.Context, companyID, userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Order("created_at DESC").
		Find(&notifications)
	return notifications, result.Error
}

func (r *Repository) UnreadNotificationCount(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("company_id = ? AND user_id = ? AND is_read = ?", companyID, userID, false).
		Count(&count)
	return count, result.Error
}

// MarkNotificationRead flips IsRead, the only mutable field of a
// notification.
func (r *Repository) MarkNotificationRead(ctx context.Context, companyID, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND company_id = ? AND user_id = ?", id, companyID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
