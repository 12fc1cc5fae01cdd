package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
)

var day = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func TestAppointmentRepository_Upcoming(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	alice, bruno := addUser(t, db, "alice"), addUser(t, db, "bruno")
	doctor := addDoctor(t, db, "Dra. Ana", alice)

	now := at(8)
	addAppointment(t, db, doctor, alice, now.Add(-time.Hour), models.StatusScheduled)
	soon := addAppointment(t, db, doctor, alice, now.Add(time.Hour), models.StatusScheduled)
	edge := addAppointment(t, db, doctor, alice, now.Add(72*time.Hour), models.StatusScheduled)
	middle := addAppointment(t, db, doctor, alice, now.Add(30*time.Hour), models.StatusScheduled)
	addAppointment(t, db, doctor, alice, now.Add(73*time.Hour), models.StatusScheduled)
	addAppointment(t, db, doctor, alice, now.Add(2*time.Hour), models.StatusCancelled)
	addAppointment(t, db, doctor, alice, now.Add(3*time.Hour), models.StatusCompleted)
	theirs := addAppointment(t, db, doctor, bruno, now.Add(4*time.Hour), models.StatusScheduled)

	apptIDs := func(list []models.Appointment) []string {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.ID)
		}
		return out
	}

	got, err := repo.Upcoming(ctx, policy.Scope{OwnerID: &alice.ID}, now, now.Add(72*time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{soon.ID, middle.ID, edge.ID}, apptIDs(got))
	assert.Equal(t, "Dra. Ana", got[0].Doctor.Name)

	got, err = repo.Upcoming(ctx, policy.Scope{}, now, now.Add(72*time.Hour), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{soon.ID, theirs.ID}, apptIDs(got))
}

func TestAppointmentRepository_CoverageCounts(t *testing.T) {
	db := newTestDB(t)
	appointments := NewAppointmentRepository(db)
	doctors := NewDoctorRepository(db)
	ctx := context.Background()

	alice, bruno := addUser(t, db, "alice"), addUser(t, db, "bruno")
	rep := addRepresentative(t, db, alice)

	mine := addDoctor(t, db, "Dra. Ana", alice)
	assigned := addDoctor(t, db, "Dr. Beto", bruno)
	dropped := addDoctor(t, db, "Dr. Caio", bruno)
	addDoctor(t, db, "Dra. Duda", bruno)
	addAssignment(t, db, assigned, rep, true)
	addAssignment(t, db, dropped, rep, false)

	since := at(0)
	addAppointment(t, db, mine, alice, at(-1), models.StatusCompleted)
	addAppointment(t, db, mine, alice, at(9), models.StatusCompleted)
	addAppointment(t, db, mine, alice, at(11), models.StatusScheduled)
	addAppointment(t, db, assigned, bruno, at(10), models.StatusCompleted)
	addAppointment(t, db, dropped, bruno, at(10), models.StatusCompleted)

	tests := []struct {
		name     string
		coverage Coverage
		doctors  int64
		visits   int64
		visited  int64
	}{
		{"everyone", Coverage{}, 4, 4, 3},
		{"representative", Coverage{RepresentativeID: rep.ID}, 1, 1, 1},
		{"owner", Coverage{OwnerID: alice.ID}, 1, 2, 1},
		{"owner without doctors", Coverage{OwnerID: "nobody"}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := doctors.CountCovered(ctx, tt.coverage)
			require.NoError(t, err)
			assert.Equal(t, tt.doctors, n)

			visits, visited, err := appointments.CountSince(ctx, tt.coverage, since)
			require.NoError(t, err)
			assert.Equal(t, tt.visits, visits)
			assert.Equal(t, tt.visited, visited)
		})
	}
}

func TestAppointmentRepository_DeleteRemovesReport(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	reports := NewReportRepository(db)
	ctx := context.Background()

	alice := addUser(t, db, "alice")
	doctor := addDoctor(t, db, "Dra. Ana", alice)
	visit := addAppointment(t, db, doctor, alice, at(9), models.StatusCompleted)

	require.NoError(t, reports.Create(ctx, &models.VisitReport{AppointmentID: visit.ID, Objective: "Launch"}))
	assert.ErrorIs(t, reports.Create(ctx, &models.VisitReport{AppointmentID: visit.ID, Objective: "Again"}), ErrDuplicate)

	require.NoError(t, repo.Delete(ctx, visit.ID))
	_, err := reports.GetByAppointmentID(ctx, visit.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, visit.ID), ErrNotFound)
}
