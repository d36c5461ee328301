package db

import (
	"context"

	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateRequest(ctx context.Context, request *models.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *Repository) GetRequest(ctx context.Context, companyID, id uuid.UUID) (*models.MaintenanceRequest, error) {
	var request models.MaintenanceRequest
	result := r.db.WithContext(ctx).First(&request, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &request, nil
}

func (r *Repository) SaveRequest(ctx context.Context, request *models.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *Repository) ListRequests(ctx context.Context, companyID uuid.UUID, status models.RequestStatus) ([]models.MaintenanceRequest, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var requests []models.MaintenanceRequest
	result := q.Order("created_at DESC").Find(&requests)
	return requests, result.Error
}
