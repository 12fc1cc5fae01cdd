package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharma-crm-server/internal/models"
)

// ReportRepository stores visit reports.
type ReportRepository interface {
	GetByID(ctx context.Context, id string) (*models.VisitReport, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*models.VisitReport, error)
	ListByAppointmentIDs(ctx context.Context, appointmentIDs []string) ([]models.VisitReport, error)
	Create(ctx context.Context, report *models.VisitReport) error
	Update(ctx context.Context, report *models.VisitReport) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a gorm backed ReportRepository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.VisitReport, error) {
	var report models.VisitReport
	if err := r.db.WithContext(ctx).Preload("Appointment.Doctor").First(&report, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *reportRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*models.VisitReport, error) {
	var report models.VisitReport
	if err := r.db.WithContext(ctx).First(&report, "appointment_id = ?", appointmentID).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *reportRepository) ListByAppointmentIDs(ctx context.Context, appointmentIDs []string) ([]models.VisitReport, error) {
	if len(appointmentIDs) == 0 {
		return nil, nil
	}
	var reports []models.VisitReport
	if err := r.db.WithContext(ctx).Where("appointment_id IN ?", appointmentIDs).Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) Create(ctx context.Context, report *models.VisitReport) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error)
}

func (r *reportRepository) Update(ctx context.Context, report *models.VisitReport) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(report).Error)
}
