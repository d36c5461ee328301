package db

import (
	"context"
	"errors"

	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrDuplicateName
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "id = ?", id)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &company, nil
}

// SaveCompany persists the full company row. Used by the subscription
// engine to keep the denormalized mirror in sync; never called with a
// mirror written independently of a subscription transition.
func (r *Repository) SaveCompany(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) GetUser(ctx context.Context, companyID, id uuid.UUID) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, "id = ? AND company_id = ?", id, companyID)
	if result.Error != nil {
		return nil, notFound(result.Error)
	}
	return &user, nil
}

// ListUsersByRoles returns the company's users holding any of the given
// roles. The notification dispatcher uses it to resolve recipients.
func (r *Repository) ListUsersByRoles(ctx context.Context, companyID uuid.UUID, roles ...models.Role) ([]models.User, error) {
	var users []models.User
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND role IN ?", companyID, roles).
		Order("created_at").
		Find(&users)
	return users, result.Error
}
