package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

const coverageWindow = 30 * 24 * time.Hour

// DashboardKPIs is the coverage summary of the last 30 days.
type DashboardKPIs struct {
	Assigned    int     `json:"kpi_assigned"`
	Visited     int64   `json:"kpi_visited"`
	CoveragePct float64 `json:"kpi_coverage_pct"`
	Visits30d   int64   `json:"kpi_visits_30d"`
}

// Agenda is the context of the calendar page.
type Agenda struct {
	Doctors        []models.Doctor            `json:"doctors"`
	Statuses       []models.AppointmentStatus `json:"statuses"`
	SelectedDoctor string                     `json:"selected_doctor,omitempty"`
	SelectedStatus string                     `json:"selected_status"`
}

type DashboardService struct {
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	now          func() time.Time
}

func NewDashboardService(doctors repository.DoctorRepository, appointments repository.AppointmentRepository) *DashboardService {
	return &DashboardService{doctors: doctors, appointments: appointments, now: time.Now}
}

// KPIs measures visit coverage. Managers are measured on every doctor,
// representatives with a profile on their active assignments, everyone
// else on the doctors they own.
func (s *DashboardService) KPIs(ctx context.Context, actor policy.Actor) (DashboardKPIs, error) {
	coverage := coverageOf(actor)
	assigned, err := s.doctors.CountCovered(ctx, coverage)
	if err != nil {
		return DashboardKPIs{}, err
	}
	visits, visited, err := s.appointments.CountSince(ctx, coverage, s.now().Add(-coverageWindow))
	if err != nil {
		return DashboardKPIs{}, err
	}

	denominator := assigned
	if denominator == 0 {
		denominator = 1
	}
	return DashboardKPIs{
		Assigned:    int(assigned),
		Visited:     visited,
		CoveragePct: math.Round(1000*float64(visited)/float64(denominator)) / 10,
		Visits30d:   visits,
	}, nil
}

// Agenda lists the doctors the actor can filter the calendar by, sorted by name.
func (s *DashboardService) Agenda(ctx context.Context, actor policy.Actor, filter EventFilter) (*Agenda, error) {
	doctors, err := s.doctors.List(ctx, actor.Scope())
	if err != nil {
		return nil, err
	}
	sort.SliceStable(doctors, func(i, j int) bool {
		return strings.ToLower(doctors[i].Name) < strings.ToLower(doctors[j].Name)
	})
	return &Agenda{
		Doctors:        doctors,
		Statuses:       models.AppointmentStatuses,
		SelectedDoctor: filter.DoctorID,
		SelectedStatus: filter.Status,
	}, nil
}

func coverageOf(actor policy.Actor) repository.Coverage {
	switch {
	case actor.Manager:
		return repository.Coverage{}
	case actor.RepresentativeID != "":
		return repository.Coverage{RepresentativeID: actor.RepresentativeID}
	}
	return repository.Coverage{OwnerID: actor.UserID}
}
