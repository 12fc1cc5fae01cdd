package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
)

// AppointmentFilter narrows appointment listings. Zero values match all.
type AppointmentFilter struct {
	DoctorID string
	Status   models.AppointmentStatus
}

// AppointmentRepository stores visits.
type AppointmentRepository interface {
	List(ctx context.Context, scope policy.Scope, filter AppointmentFilter) ([]models.Appointment, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	Create(ctx context.Context, a *models.Appointment) error
	Update(ctx context.Context, a *models.Appointment) error
	Delete(ctx context.Context, id string) error
	Upcoming(ctx context.Context, scope policy.Scope, from, to time.Time, limit int) ([]models.Appointment, error)
	CountSince(ctx context.Context, c Coverage, since time.Time) (visits int64, visitedDoctors int64, err error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a gorm backed AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// List returns appointments newest-scheduled first with their doctor loaded.
func (r *appointmentRepository) List(ctx context.Context, scope policy.Scope, filter AppointmentFilter) ([]models.Appointment, error) {
	q := ownedBy(r.db.WithContext(ctx).Preload("Doctor"), scope).Order("scheduled_at desc")
	if filter.DoctorID != "" {
		q = q.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var appointments []models.Appointment
	if err := q.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := r.db.WithContext(ctx).Preload("Doctor").First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *appointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

func (r *appointmentRepository) Update(ctx context.Context, a *models.Appointment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error)
}

// Delete removes the appointment and its report.
func (r *appointmentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("appointment_id = ?", id).Delete(&models.VisitReport{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Appointment{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Upcoming returns scheduled appointments in [from, to], soonest first.
func (r *appointmentRepository) Upcoming(ctx context.Context, scope policy.Scope, from, to time.Time, limit int) ([]models.Appointment, error) {
	q := ownedBy(r.db.WithContext(ctx).Preload("Doctor"), scope).
		Where("status = ? AND scheduled_at >= ? AND scheduled_at <= ?", models.StatusScheduled, from, to).
		Order("scheduled_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var appointments []models.Appointment
	if err := q.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// CountSince counts appointments on the doctors selected by c from since
// onwards and how many distinct doctors they cover.
func (r *appointmentRepository) CountSince(ctx context.Context, c Coverage, since time.Time) (int64, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Appointment{}).Where("scheduled_at >= ?", since)
		if sub := coveredDoctors(r.db.WithContext(ctx), c); sub != nil {
			q = q.Where("doctor_id IN (?)", sub)
		}
		return q
	}

	var visits, visited int64
	if err := base().Count(&visits).Error; err != nil {
		return 0, 0, err
	}
	if err := base().Distinct("doctor_id").Count(&visited).Error; err != nil {
		return 0, 0, err
	}
	return visits, visited, nil
}
