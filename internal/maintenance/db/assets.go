package db

import (
	"context"

	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateLocation(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *Repository) GetLocation(ctx context.Context, companyID, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	result := r.db.WithContext(ctx).First(&location, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &location, nil
}

func (r *Repository) CreateEquipment(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).Create(equipment).Error
}

func (r *Repository) GetEquipment(ctx context.Context, companyID, id uuid.UUID) (*models.Equipment, error) {
	var equipment models.Equipment
	result := r.db.WithContext(ctx).First(&equipment, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &equipment, nil
}

func (r *Repository) SaveEquipment(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).Save(equipment).Error
}
