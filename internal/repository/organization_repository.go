package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
)

// OrganizationRepository stores organizations.
type OrganizationRepository interface {
	List(ctx context.Context, scope policy.Scope) ([]models.Organization, error)
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	Create(ctx context.Context, o *models.Organization) error
	Update(ctx context.Context, o *models.Organization) error
	Delete(ctx context.Context, id string) error
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a gorm backed OrganizationRepository.
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) List(ctx context.Context, scope policy.Scope) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := ownedBy(r.db.WithContext(ctx), scope).Order("name asc").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	var o models.Organization
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *organizationRepository) Create(ctx context.Context, o *models.Organization) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error)
}

func (r *organizationRepository) Update(ctx context.Context, o *models.Organization) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error)
}

// Delete removes the organization, unlinking its doctors and deals.
func (r *organizationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Deal{}).Where("organization_id = ?", id).Update("organization_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM doctor_organizations WHERE organization_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Organization{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
