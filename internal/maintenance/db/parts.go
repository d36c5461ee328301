package db

import (
	"context"

	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateStorePart(ctx context.Context, part *models.StorePart) error {
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *Repository) GetStorePart(ctx context.Context, companyID, id uuid.UUID) (*models.StorePart, error) {
	var part models.StorePart
	result := r.db.WithContext(ctx).First(&part, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &part, nil
}

// GetStorePartForUpdate fetches the part with a row lock so that the
// read-check-decrement sequence of part attachment serializes across
// concurrent transactions. Call inside a transaction.
func (r *Repository) GetStorePartForUpdate(ctx context.Context, companyID, id uuid.UUID) (*models.StorePart, error) {
	var part models.StorePart
	result := r.forUpdate(r.db.WithContext(ctx)).
		First(&part, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &part, nil
}

func (r *Repository) SaveStorePart(ctx context.Context, part *models.StorePart) error {
	return r.db.WithContext(ctx).Save(part).Error
}

// GetWorkOrderPart returns the consumption row for (work order, part),
// or ErrNotFound when nothing has been consumed yet.
func (r *Repository) GetWorkOrderPart(ctx context.Context, workOrderID, storePartID uuid.UUID) (*models.WorkOrderPart, error) {
	var row models.WorkOrderPart
	result := r.db.WithContext(ctx).
		First(&row, "work_order_id = ? AND store_part_id = ?", workOrderID, storePartID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &row, nil
}

func (r *Repository) CreateWorkOrderPart(ctx context.Context, row *models.WorkOrderPart) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) SaveWorkOrderPart(ctx context.Context, row *models.WorkOrderPart) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *Repository) ListWorkOrderParts(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderPart, error) {
	var rows []models.WorkOrderPart
	result := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Find(&rows)
	return rows, result.Error
}
