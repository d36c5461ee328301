package db

import (
	"context"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *Repository) GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	result := r.db.WithContext(ctx).First(&sub, "id = ?", id)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &sub, nil
}

// GetCurrentSubscription returns the single current lifecycle row of
// the company, or ErrNotFound when the company has never subscribed.
func (r *Repository) GetCurrentSubscription(ctx context.Context, companyID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	result := r.db.WithContext(ctx).
		First(&sub, "company_id = ? AND current = ?", companyID, true)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &sub, nil
}

func (r *Repository) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

// SetSubscriptionNotified stamps last_notification_sent without
// touching the rest of the row, so a renewal committed after the
// caller read its copy is never reverted.
func (r *Repository) SetSubscriptionNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", id).
		Update("last_notification_sent", at).Error
}

// ListCurrentSubscriptions returns every company's current row for the
// periodic expiry sweep.
func (r *Repository) ListCurrentSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	result := r.db.WithContext(ctx).Where("current = ?", true).Find(&subs)
	return subs, result.Error
}
