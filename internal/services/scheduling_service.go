package services

import (
	"context"
	"errors"
	"time"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

const (
	alertWindow  = 72 * time.Hour
	urgentWindow = 24 * time.Hour
	alertLimit   = 20
	alertLayout  = "02/01 15:04"
)

type eventColor struct {
	background, border string
}

var (
	statusColors = map[models.AppointmentStatus]eventColor{
		models.StatusScheduled: {"#0d6efd", "#0b5ed7"},
		models.StatusCompleted: {"#198754", "#157347"},
		models.StatusCancelled: {"#dc3545", "#c82333"},
	}
	unknownColor = eventColor{"#6c757d", "#6c757d"}
)

// CalendarEvent is one entry of the calendar feed.
type CalendarEvent struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Start           string `json:"start"`
	End             string `json:"end"`
	Status          string `json:"status"`
	DoctorID        string `json:"doctor_id"`
	Notes           string `json:"notes"`
	BackgroundColor string `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
}

// EventFilter narrows the calendar feed. An unknown status is ignored.
type EventFilter struct {
	DoctorID string `form:"doctor"`
	Status   string `form:"status"`
}

// EventInput creates a visit from the calendar.
type EventInput struct {
	DoctorID    string `json:"doctor" form:"doctor"`
	Start       string `json:"start" form:"start"`
	Status      string `json:"status" form:"status"`
	ContactName string `json:"contact_name" form:"contact_name"`
	Notes       string `json:"notes" form:"notes"`
}

// EventUpdate changes a visit from the calendar. Empty Start and unknown
// Status leave the fields alone; a nil Notes keeps the current notes.
type EventUpdate struct {
	ID     string
	Start  string
	Status string
	Notes  *string
}

// Alert is an upcoming visit reminder.
type Alert struct {
	ID      string `json:"id"`
	Doctor  string `json:"doctor"`
	When    string `json:"when"`
	Urgency string `json:"urgency"`
	Message string `json:"message"`
}

// AlertFeed is the payload of the alerts endpoint.
type AlertFeed struct {
	Count  int     `json:"count"`
	Alerts []Alert `json:"alerts"`
}

// AppointmentInput is the appointment page form.
type AppointmentInput struct {
	DoctorID    string `json:"doctor" form:"doctor" validate:"required"`
	ContactName string `json:"contact_name" form:"contact_name" validate:"max=120"`
	When        string `json:"when" form:"when" validate:"required"`
	Status      string `json:"status" form:"status"`
	Notes       string `json:"notes" form:"notes"`
	OwnerID     string `json:"owner" form:"owner"`
}

// SchedulingService owns appointments and the calendar feeds built on them.
type SchedulingService struct {
	appointments repository.AppointmentRepository
	doctors      *DoctorService
	effects      *SideEffects
	loc          *time.Location
	now          func() time.Time
}

func NewSchedulingService(appointments repository.AppointmentRepository, doctors *DoctorService, effects *SideEffects, loc *time.Location) *SchedulingService {
	if loc == nil {
		loc = time.Local
	}
	return &SchedulingService{
		appointments: appointments,
		doctors:      doctors,
		effects:      effects,
		loc:          loc,
		now:          time.Now,
	}
}

// Location is the timezone naive times are read and rendered in.
func (s *SchedulingService) Location() *time.Location {
	return s.loc
}

// ListEvents returns the calendar feed for the actor.
func (s *SchedulingService) ListEvents(ctx context.Context, actor policy.Actor, filter EventFilter) ([]CalendarEvent, error) {
	appts, err := s.appointments.List(ctx, actor.Scope(), s.appointmentFilter(filter))
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(appts))
	for _, a := range appts {
		color, ok := statusColors[a.Status]
		if !ok {
			color = unknownColor
		}
		start := a.ScheduledAt.In(s.loc)
		events = append(events, CalendarEvent{
			ID:              a.ID,
			Title:           a.Doctor.Name,
			Start:           FormatLocal(start, s.loc),
			End:             FormatLocal(start.Add(VisitDuration), s.loc),
			Status:          string(a.Status),
			DoctorID:        a.DoctorID,
			Notes:           a.Notes,
			BackgroundColor: color.background,
			BorderColor:     color.border,
		})
	}
	return events, nil
}

// CreateEvent schedules a visit owned by the actor. Nothing is stored when
// the start or the doctor is invalid.
func (s *SchedulingService) CreateEvent(ctx context.Context, actor policy.Actor, in EventInput) (*models.Appointment, error) {
	when, err := ParseStart(in.Start, s.loc)
	if err != nil {
		return nil, err
	}
	doctor, err := s.visibleDoctor(ctx, actor, in.DoctorID)
	if err != nil {
		return nil, err
	}

	status := models.AppointmentStatus(in.Status)
	if !status.Valid() {
		status = models.StatusScheduled
	}
	owner := actor.UserID
	appt := &models.Appointment{
		DoctorID:    doctor.ID,
		ContactName: in.ContactName,
		ScheduledAt: when,
		Status:      status,
		Notes:       in.Notes,
		OwnerID:     &owner,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, fromRepo(err)
	}
	appt.Doctor = *doctor

	s.effects.VisitScheduled(ctx, appt, doctor, s.loc)
	return appt, nil
}

// UpdateEvent applies a calendar edit. The owner check runs before any field
// is parsed, and a bad start leaves the row untouched.
func (s *SchedulingService) UpdateEvent(ctx context.Context, actor policy.Actor, in EventUpdate) error {
	appt, err := s.mutable(ctx, actor, in.ID)
	if err != nil {
		return err
	}

	if in.Start != "" {
		when, err := ParseStart(in.Start, s.loc)
		if err != nil {
			return err
		}
		appt.ScheduledAt = when
	}
	if status := models.AppointmentStatus(in.Status); status.Valid() {
		appt.Status = status
	}
	if in.Notes != nil {
		appt.Notes = *in.Notes
	}
	return fromRepo(s.appointments.Update(ctx, appt))
}

// Delete removes an appointment and its report.
func (s *SchedulingService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.mutable(ctx, actor, id); err != nil {
		return err
	}
	return fromRepo(s.appointments.Delete(ctx, id))
}

// Alerts lists the actor's scheduled visits in the next 72 hours, soonest
// first. Visits within 24 hours are urgent.
func (s *SchedulingService) Alerts(ctx context.Context, actor policy.Actor) (AlertFeed, error) {
	now := s.now()
	appts, err := s.appointments.Upcoming(ctx, actor.Scope(), now, now.Add(alertWindow), alertLimit)
	if err != nil {
		return AlertFeed{}, err
	}

	feed := AlertFeed{Alerts: make([]Alert, 0, len(appts))}
	for _, a := range appts {
		urgency := "soon"
		if a.ScheduledAt.Sub(now) <= urgentWindow {
			urgency = "urgent"
		}
		when := a.ScheduledAt.In(s.loc).Format(alertLayout)
		feed.Alerts = append(feed.Alerts, Alert{
			ID:      a.ID,
			Doctor:  a.Doctor.Name,
			When:    when,
			Urgency: urgency,
			Message: "Visit with " + a.Doctor.Name + " • " + when,
		})
	}
	feed.Count = len(feed.Alerts)
	return feed, nil
}

// ListAppointments returns the actor's appointments, newest first.
func (s *SchedulingService) ListAppointments(ctx context.Context, actor policy.Actor, filter EventFilter) ([]models.Appointment, error) {
	return s.appointments.List(ctx, actor.Scope(), s.appointmentFilter(filter))
}

// GetAppointment returns an appointment the actor may change.
func (s *SchedulingService) GetAppointment(ctx context.Context, actor policy.Actor, id string) (*models.Appointment, error) {
	return s.mutable(ctx, actor, id)
}

func (s *SchedulingService) CreateAppointment(ctx context.Context, actor policy.Actor, in AppointmentInput) (*models.Appointment, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	when, err := ParseStart(in.When, s.loc)
	if err != nil {
		return nil, err
	}
	doctor, err := s.visibleDoctor(ctx, actor, in.DoctorID)
	if err != nil {
		return nil, err
	}

	status := models.AppointmentStatus(in.Status)
	if !status.Valid() {
		status = models.StatusScheduled
	}
	appt := &models.Appointment{
		DoctorID:    doctor.ID,
		ContactName: in.ContactName,
		ScheduledAt: when,
		Status:      status,
		Notes:       in.Notes,
		OwnerID:     actor.OwnerForCreate(optional(in.OwnerID)),
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, fromRepo(err)
	}
	appt.Doctor = *doctor

	s.effects.VisitScheduled(ctx, appt, doctor, s.loc)
	return appt, nil
}

func (s *SchedulingService) UpdateAppointment(ctx context.Context, actor policy.Actor, id string, in AppointmentInput) (*models.Appointment, error) {
	appt, err := s.mutable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	when, err := ParseStart(in.When, s.loc)
	if err != nil {
		return nil, err
	}
	if in.DoctorID != appt.DoctorID {
		doctor, err := s.visibleDoctor(ctx, actor, in.DoctorID)
		if err != nil {
			return nil, err
		}
		appt.DoctorID = doctor.ID
		appt.Doctor = *doctor
	}

	appt.ContactName = in.ContactName
	appt.ScheduledAt = when
	if status := models.AppointmentStatus(in.Status); status.Valid() {
		appt.Status = status
	}
	appt.Notes = in.Notes
	appt.OwnerID = actor.OwnerForUpdate(appt.OwnerID, optional(in.OwnerID))

	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, fromRepo(err)
	}
	return appt, nil
}

func (s *SchedulingService) mutable(ctx context.Context, actor policy.Actor, id string) (*models.Appointment, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !actor.CanMutate(appt.OwnerID) {
		return nil, ErrForbidden
	}
	return appt, nil
}

func (s *SchedulingService) visibleDoctor(ctx context.Context, actor policy.Actor, id string) (*models.Doctor, error) {
	if id == "" {
		return nil, ErrInvalidDoctor
	}
	d, err := s.doctors.Get(ctx, actor, id)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return nil, ErrInvalidDoctor
	case err != nil:
		return nil, err
	}
	return d, nil
}

func (s *SchedulingService) appointmentFilter(f EventFilter) repository.AppointmentFilter {
	out := repository.AppointmentFilter{DoctorID: f.DoctorID}
	if status := models.AppointmentStatus(f.Status); status.Valid() {
		out.Status = status
	}
	return out
}
