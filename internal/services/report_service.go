package services

import (
	"context"
	"errors"
	"strings"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

// ReportInput is the visit report form.
type ReportInput struct {
	VisitNumber string `json:"visit_number" form:"visit_number"`
	Mode        string `json:"mode" form:"mode"`
	Objective   string `json:"objective" form:"objective" validate:"required,max=200"`
	Summary     string `json:"summary" form:"summary"`
	Outcome     string `json:"outcome" form:"outcome"`
	NextSteps   string `json:"next_steps" form:"next_steps"`
}

// ReportRow is an appointment in the report list with its report id, if any.
type ReportRow struct {
	Appointment models.Appointment `json:"appointment"`
	Doctor      string             `json:"doctor"`
	ReportID    string             `json:"report_id,omitempty"`
}

// ReportService manages visit reports. A report is visible to whoever may
// change its appointment.
type ReportService struct {
	appointments repository.AppointmentRepository
	reports      repository.ReportRepository
}

func NewReportService(appointments repository.AppointmentRepository, reports repository.ReportRepository) *ReportService {
	return &ReportService{appointments: appointments, reports: reports}
}

// ListReports returns the actor's appointments newest first, each with the
// id of its report when one exists.
func (s *ReportService) ListReports(ctx context.Context, actor policy.Actor) ([]ReportRow, error) {
	appts, err := s.appointments.List(ctx, actor.Scope(), repository.AppointmentFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(appts))
	for _, a := range appts {
		ids = append(ids, a.ID)
	}
	reports, err := s.reports.ListByAppointmentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byAppt := make(map[string]string, len(reports))
	for _, r := range reports {
		byAppt[r.AppointmentID] = r.ID
	}

	rows := make([]ReportRow, 0, len(appts))
	for _, a := range appts {
		rows = append(rows, ReportRow{Appointment: a, Doctor: a.Doctor.Name, ReportID: byAppt[a.ID]})
	}
	return rows, nil
}

// Appointment returns the appointment a report would be written for, and
// its report when one already exists.
func (s *ReportService) Appointment(ctx context.Context, actor policy.Actor, appointmentID string) (*models.Appointment, *models.VisitReport, error) {
	appt, err := s.appointment(ctx, actor, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	existing, err := s.reports.GetByAppointmentID(ctx, appt.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return appt, nil, nil
	case err != nil:
		return nil, nil, err
	}
	return appt, existing, nil
}

// CreateReport writes the report of an appointment. When the appointment
// already has one, that report is returned with created set to false.
func (s *ReportService) CreateReport(ctx context.Context, actor policy.Actor, appointmentID string, in ReportInput) (report *models.VisitReport, created bool, err error) {
	appt, existing, err := s.Appointment(ctx, actor, appointmentID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	in.Objective = strings.TrimSpace(in.Objective)
	if err := validateInput(in); err != nil {
		return nil, false, err
	}

	report = &models.VisitReport{
		AppointmentID: appt.ID,
		VisitNumber:   models.VisitFirst,
		Mode:          models.ModeInPerson,
	}
	applyReportInput(report, in)
	err = s.reports.Create(ctx, report)
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race with another writer; the unique index kept one report.
		existing, err := s.reports.GetByAppointmentID(ctx, appt.ID)
		if err != nil {
			return nil, false, fromRepo(err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fromRepo(err)
	}
	return report, true, nil
}

// GetReport returns a report whose appointment the actor may change.
func (s *ReportService) GetReport(ctx context.Context, actor policy.Actor, id string) (*models.VisitReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !actor.CanMutate(report.Appointment.OwnerID) {
		return nil, ErrForbidden
	}
	return report, nil
}

// UpdateReport replaces every field of the report.
func (s *ReportService) UpdateReport(ctx context.Context, actor policy.Actor, id string, in ReportInput) (*models.VisitReport, error) {
	report, err := s.GetReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.Objective = strings.TrimSpace(in.Objective)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	applyReportInput(report, in)
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, fromRepo(err)
	}
	return report, nil
}

func (s *ReportService) appointment(ctx context.Context, actor policy.Actor, id string) (*models.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !actor.CanMutate(appt.OwnerID) {
		return nil, ErrForbidden
	}
	return appt, nil
}

func applyReportInput(r *models.VisitReport, in ReportInput) {
	if n := models.VisitNumber(in.VisitNumber); n.Valid() {
		r.VisitNumber = n
	}
	if m := models.VisitMode(in.Mode); m.Valid() {
		r.Mode = m
	}
	r.Objective = in.Objective
	r.Summary = in.Summary
	r.Outcome = in.Outcome
	r.NextSteps = in.NextSteps
}
