package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
)

// DoctorRepository stores doctors and their organization links.
type DoctorRepository interface {
	List(ctx context.Context, scope policy.Scope) ([]models.Doctor, error)
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	CountCovered(ctx context.Context, c Coverage) (int64, error)
	ExistsNameLicense(ctx context.Context, nameKey, licenseCode, excludeID string) (bool, error)
	ExistsLicenseRegion(ctx context.Context, licenseCode, region, excludeID string) (bool, error)
	Create(ctx context.Context, d *models.Doctor) error
	Update(ctx context.Context, d *models.Doctor) error
	SetOrganizations(ctx context.Context, doctorID string, organizationIDs []string) error
	Delete(ctx context.Context, id string) error
}

type doctorRepository struct {
	db *gorm.DB
}

// NewDoctorRepository creates a gorm backed DoctorRepository.
func NewDoctorRepository(db *gorm.DB) DoctorRepository {
	return &doctorRepository{db: db}
}

// List returns the doctors visible in scope, newest first. A scoped
// representative sees owned doctors plus those under an active assignment.
func (r *doctorRepository) List(ctx context.Context, scope policy.Scope) ([]models.Doctor, error) {
	q := r.db.WithContext(ctx).Preload("Organizations").Order("created_at desc")
	if !scope.Unrestricted() {
		if scope.RepresentativeID != "" {
			assigned := r.db.Model(&models.Assignment{}).
				Select("doctor_id").
				Where("representative_id = ? AND active = ?", scope.RepresentativeID, true)
			q = q.Where("owner_id = ? OR id IN (?)", *scope.OwnerID, assigned)
		} else {
			q = q.Where("owner_id = ?", *scope.OwnerID)
		}
	}

	var doctors []models.Doctor
	if err := q.Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *doctorRepository) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	var d models.Doctor
	if err := r.db.WithContext(ctx).Preload("Organizations").First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// CountCovered counts the distinct doctors selected by c.
func (r *doctorRepository) CountCovered(ctx context.Context, c Coverage) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Doctor{})
	if sub := coveredDoctors(r.db.WithContext(ctx), c); sub != nil {
		q = q.Where("id IN (?)", sub)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *doctorRepository) ExistsNameLicense(ctx context.Context, nameKey, licenseCode, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Doctor{}).Where("name_key = ? AND license_code = ?", nameKey, licenseCode)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *doctorRepository) ExistsLicenseRegion(ctx context.Context, licenseCode, region, excludeID string) (bool, error) {
	if licenseCode == "" {
		return false, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Doctor{}).Where("license_code = ? AND region = ?", licenseCode, region)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *doctorRepository) Create(ctx context.Context, d *models.Doctor) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error)
}

func (r *doctorRepository) Update(ctx context.Context, d *models.Doctor) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(d).Error)
}

func (r *doctorRepository) SetOrganizations(ctx context.Context, doctorID string, organizationIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doctor := models.Doctor{BaseModel: models.BaseModel{ID: doctorID}}
		if len(organizationIDs) == 0 {
			return tx.Model(&doctor).Association("Organizations").Clear()
		}
		var orgs []models.Organization
		if err := tx.Where("id IN ?", organizationIDs).Find(&orgs).Error; err != nil {
			return err
		}
		return tx.Model(&doctor).Association("Organizations").Replace(orgs)
	})
}

// Delete removes the doctor together with its appointments, their reports
// and its assignments. Deals keep existing with the contact cleared.
func (r *doctorRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointments := tx.Model(&models.Appointment{}).Select("id").Where("doctor_id = ?", id)
		if err := tx.Where("appointment_id IN (?)", appointments).Delete(&models.VisitReport{}).Error; err != nil {
			return err
		}
		if err := tx.Where("doctor_id = ?", id).Delete(&models.Appointment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("doctor_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Deal{}).Where("contact_id = ?", id).Update("contact_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM doctor_organizations WHERE doctor_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Doctor{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
