package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *Repository) CreateWorkOrder(ctx context.Context, order *models.WorkOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetWorkOrder returns a non-deleted work order of the company.
// Soft-deleted orders are invisible here regardless of status.
func (r *Repository) GetWorkOrder(ctx context.Context, companyID, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	result := r.db.WithContext(ctx).
		First(&order, "id = ? AND company_id = ? AND deleted_at IS NULL", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &order, nil
}

// GetWorkOrderIncludingDeleted is for administrative tooling only.
func (r *Repository) GetWorkOrderIncludingDeleted(ctx context.Context, companyID, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	result := r.db.WithContext(ctx).First(&order, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &order, nil
}

func (r *Repository) SaveWorkOrder(ctx context.Context, order *models.WorkOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *Repository) ListWorkOrders(ctx context.Context, companyID uuid.UUID, status models.WorkOrderStatus) ([]models.WorkOrder, error) {
	q := r.db.WithContext(ctx).Where("company_id = ? AND deleted_at IS NULL", companyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.WorkOrder
	result := q.Order("created_at DESC").Find(&orders)
	return orders, result.Error
}

// FindPMWorkOrder looks up the work order materialized for a schedule
// at a given due date. Includes soft-deleted orders: deleting a
// materialized order does not re-arm the idempotency key.
func (r *Repository) FindPMWorkOrder(ctx context.Context, scheduleID uuid.UUID, dueDate time.Time) (*models.WorkOrder, error) {
	var order models.WorkOrder
	result := r.db.WithContext(ctx).
		First(&order, "preventive_maintenance_id = ? AND pm_due_date = ?", scheduleID, dueDate)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &order, nil
}

// NextWorkOrderNumber allocates the next per-company work order number.
// The counter row is locked for update so concurrent creations cannot
// take the same value; numbers are never reused even after soft
// deletion. Call inside a transaction.
func (r *Repository) NextWorkOrderNumber(ctx context.Context, companyID uuid.UUID) (string, error) {
	var counter models.WorkOrderCounter
	err := r.forUpdate(r.db.WithContext(ctx)).
		First(&counter, "company_id = ?", companyID).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		counter = models.WorkOrderCounter{CompanyID: companyID, NextSeq: 1}
		if err := r.db.WithContext(ctx).Create(&counter).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race for the company's first number; the
				// caller retries the whole transaction.
				return "", fmt.Errorf("%w: work order counter", e.ErrConcurrencyConflict)
			}
			return "", fmt.Errorf("failed to create work order counter: %w", err)
		}
	default:
		return "", fmt.Errorf("failed to lock work order counter: %w", err)
	}

	seq := counter.NextSeq
	counter.NextSeq = seq + 1
	if err := r.db.WithContext(ctx).Save(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to advance work order counter: %w", err)
	}
	return fmt.Sprintf("WO-%05d", seq), nil
}
