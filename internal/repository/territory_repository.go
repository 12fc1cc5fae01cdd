package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharma-crm-server/internal/models"
)

// AssignmentFilter narrows assignment listings. Zero values match all.
type AssignmentFilter struct {
	RepresentativeID string
	TerritoryID      string
	ActiveOnly       bool
}

// TerritoryRepository stores territories, representatives and assignments.
type TerritoryRepository interface {
	ListTerritories(ctx context.Context) ([]models.Territory, error)
	GetTerritory(ctx context.Context, id string) (*models.Territory, error)
	CreateTerritory(ctx context.Context, t *models.Territory) error
	UpdateTerritory(ctx context.Context, t *models.Territory) error
	DeleteTerritory(ctx context.Context, id string) error

	ListRepresentatives(ctx context.Context) ([]models.Representative, error)
	GetRepresentativeByUserID(ctx context.Context, userID string) (*models.Representative, error)
	CreateRepresentative(ctx context.Context, rep *models.Representative) error
	DeleteRepresentative(ctx context.Context, id string) error

	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	GetAssignment(ctx context.Context, id string) (*models.Assignment, error)
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	UpdateAssignment(ctx context.Context, a *models.Assignment) error
	DeleteAssignment(ctx context.Context, id string) error
	HasActiveAssignment(ctx context.Context, doctorID, representativeID string) (bool, error)
}

type territoryRepository struct {
	db *gorm.DB
}

// NewTerritoryRepository creates a gorm backed TerritoryRepository.
func NewTerritoryRepository(db *gorm.DB) TerritoryRepository {
	return &territoryRepository{db: db}
}

func (r *territoryRepository) ListTerritories(ctx context.Context) ([]models.Territory, error) {
	var territories []models.Territory
	if err := r.db.WithContext(ctx).Order("name asc").Find(&territories).Error; err != nil {
		return nil, err
	}
	return territories, nil
}

func (r *territoryRepository) GetTerritory(ctx context.Context, id string) (*models.Territory, error) {
	var t models.Territory
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *territoryRepository) CreateTerritory(ctx context.Context, t *models.Territory) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *territoryRepository) UpdateTerritory(ctx context.Context, t *models.Territory) error {
	return translate(r.db.WithContext(ctx).Save(t).Error)
}

func (r *territoryRepository) DeleteTerritory(ctx context.Context, id string) error {
	return deleteByID(r.db.WithContext(ctx), &models.Territory{}, id)
}

func (r *territoryRepository) ListRepresentatives(ctx context.Context) ([]models.Representative, error) {
	var reps []models.Representative
	if err := r.db.WithContext(ctx).Preload("User").Order("created_at asc").Find(&reps).Error; err != nil {
		return nil, err
	}
	return reps, nil
}

func (r *territoryRepository) GetRepresentativeByUserID(ctx context.Context, userID string) (*models.Representative, error) {
	var rep models.Representative
	if err := r.db.WithContext(ctx).First(&rep, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *territoryRepository) CreateRepresentative(ctx context.Context, rep *models.Representative) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(rep).Error)
}

func (r *territoryRepository) DeleteRepresentative(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("representative_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.Representative{}, id)
	})
}

func (r *territoryRepository) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	q := r.db.WithContext(ctx).Order("created_at desc")
	if filter.RepresentativeID != "" {
		q = q.Where("representative_id = ?", filter.RepresentativeID)
	}
	if filter.TerritoryID != "" {
		q = q.Where("territory_id = ?", filter.TerritoryID)
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}

	var assignments []models.Assignment
	if err := q.Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *territoryRepository) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *territoryRepository) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

func (r *territoryRepository) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error)
}

func (r *territoryRepository) DeleteAssignment(ctx context.Context, id string) error {
	return deleteByID(r.db.WithContext(ctx), &models.Assignment{}, id)
}

func (r *territoryRepository) HasActiveAssignment(ctx context.Context, doctorID, representativeID string) (bool, error) {
	if representativeID == "" {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("doctor_id = ? AND representative_id = ? AND active = ?", doctorID, representativeID, true).
		Count(&n).Error
	return n > 0, err
}

func deleteByID(db *gorm.DB, model interface{}, id string) error {
	res := db.Delete(model, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
