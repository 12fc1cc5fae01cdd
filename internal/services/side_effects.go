package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pharma-crm-server/internal/integrations/calendarsync"
	"pharma-crm-server/internal/integrations/visitlog"
	"pharma-crm-server/internal/models"
)

// VisitDuration is the fixed length of a calendar entry.
const VisitDuration = 30 * time.Minute

// SideEffects publishes new visits outside the database. Failures are logged
// and dropped; they never fail the request that scheduled the visit.
type SideEffects struct {
	calendar calendarsync.Syncer
	visits   visitlog.Sink
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewSideEffects wires the calendar and visit log collaborators. Nil
// collaborators are replaced with no-ops.
func NewSideEffects(calendar calendarsync.Syncer, visits visitlog.Sink, timeout time.Duration, logger zerolog.Logger) *SideEffects {
	if calendar == nil {
		calendar = calendarsync.Nop{}
	}
	if visits == nil {
		visits = visitlog.Nop{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SideEffects{calendar: calendar, visits: visits, timeout: timeout, logger: logger}
}

// VisitScheduled appends the visit to the ledger and pushes it to the calendar.
func (s *SideEffects) VisitScheduled(ctx context.Context, appt *models.Appointment, doctor *models.Doctor, loc *time.Location) {
	if s == nil {
		return
	}
	start := appt.ScheduledAt.In(loc)

	s.bestEffort(ctx, "visit log", func(ctx context.Context) error {
		return s.visits.Append(ctx, visitlog.Row{
			AppointmentID:  appt.ID,
			Doctor:         doctor.Name,
			LicenseCode:    doctor.LicenseCode,
			Specialty:      doctor.Specialty,
			Contact:        appt.ContactName,
			ScheduledAt:    start,
			ScheduledLocal: FormatLocal(start, loc),
			Status:         string(appt.Status),
			Notes:          appt.Notes,
		})
	})
	s.bestEffort(ctx, "calendar sync", func(ctx context.Context) error {
		return s.calendar.Push(ctx, calendarsync.Event{
			Title:       "Visit: " + doctor.Name,
			Start:       start,
			End:         start.Add(VisitDuration),
			Description: appt.Notes,
		})
	})
}

func (s *SideEffects) bestEffort(ctx context.Context, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.logger.Warn().Err(err).Str("effect", name).Msg("side effect failed")
	}
}
