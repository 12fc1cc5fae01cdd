package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-crm-server/internal/models"
)

func TestDoctorCreate_OwnerPolicy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	d, err := f.doctors.Create(ctx, f.alice, DoctorInput{Name: "Dr. Ana", OwnerID: f.bruno.UserID})
	require.NoError(t, err)
	assert.Equal(t, f.alice.UserID, *d.OwnerID)

	d, err = f.doctors.Create(ctx, f.manager, DoctorInput{Name: "Dr. Bia", OwnerID: f.bruno.UserID})
	require.NoError(t, err)
	assert.Equal(t, f.bruno.UserID, *d.OwnerID)

	d, err = f.doctors.Create(ctx, f.manager, DoctorInput{Name: "Dr. Caio"})
	require.NoError(t, err)
	assert.Equal(t, f.manager.UserID, *d.OwnerID)
}

func TestDoctorCreate_Uniqueness(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.doctors.Create(ctx, f.alice, DoctorInput{Name: "Dr. Ana", LicenseCode: "123", Region: "sp"})
	require.NoError(t, err)

	_, err = f.doctors.Create(ctx, f.bruno, DoctorInput{Name: "  DR. ANA ", LicenseCode: "123", Region: "RJ"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.doctors.Create(ctx, f.bruno, DoctorInput{Name: "Dr. Bia", LicenseCode: "123", Region: "SP"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.doctors.Create(ctx, f.bruno, DoctorInput{Name: "Dr. Bia", LicenseCode: "123", Region: "RJ"})
	assert.NoError(t, err)

	// Blank license codes never collide on region.
	_, err = f.doctors.Create(ctx, f.bruno, DoctorInput{Name: "Dr. Caio", Region: "SP"})
	require.NoError(t, err)
	_, err = f.doctors.Create(ctx, f.bruno, DoctorInput{Name: "Dr. Duda", Region: "SP"})
	assert.NoError(t, err)

	_, err = f.doctors.Create(ctx, f.bruno, DoctorInput{Name: "Dr. Caio", Region: "MG"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestDoctorCreate_Validation(t *testing.T) {
	f := newFixture()
	_, err := f.doctors.Create(context.Background(), f.alice, DoctorInput{Email: "nope"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "email is invalid")
}

func TestDoctorVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addRepresentative(&f.alice)
	own := f.addDoctor("Dr. Own", f.alice)
	assigned := f.addDoctor("Dr. Assigned", f.bruno)
	inactive := f.addDoctor("Dr. Inactive", f.bruno)
	f.addDoctor("Dr. Hidden", f.bruno)
	f.assign(assigned, f.alice, true)
	f.assign(inactive, f.alice, false)

	list, err := f.doctors.List(ctx, f.alice)
	require.NoError(t, err)
	var names []string
	for _, d := range list {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"Dr. Own", "Dr. Assigned"}, names)

	_, err = f.doctors.Get(ctx, f.alice, assigned.ID)
	assert.NoError(t, err)
	_, err = f.doctors.Get(ctx, f.alice, inactive.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.doctors.Get(ctx, f.alice, own.ID)
	assert.NoError(t, err)

	// Reading through an assignment does not grant edit rights.
	_, err = f.doctors.Update(ctx, f.alice, assigned.ID, DoctorInput{Name: "Renamed"})
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := f.doctors.List(ctx, f.manager)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDoctorUpdate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d, err := f.doctors.Create(ctx, f.alice, DoctorInput{Name: "Dr. Ana", LicenseCode: "1", Region: "SP"})
	require.NoError(t, err)

	updated, err := f.doctors.Update(ctx, f.alice, d.ID, DoctorInput{Name: "Dr. Ana", LicenseCode: "1", Region: "SP", Specialty: "Cardiology", OwnerID: f.bruno.UserID})
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", updated.Specialty)
	assert.Equal(t, f.alice.UserID, *updated.OwnerID)

	updated, err = f.doctors.Update(ctx, f.manager, d.ID, DoctorInput{Name: "Dr. Ana", OwnerID: f.bruno.UserID})
	require.NoError(t, err)
	assert.Equal(t, f.bruno.UserID, *updated.OwnerID)
}

func TestDoctorOrganizationsAreScoped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	mine, err := f.orgs.Create(ctx, f.alice, OrganizationInput{Name: "Mine"})
	require.NoError(t, err)
	theirs, err := f.orgs.Create(ctx, f.bruno, OrganizationInput{Name: "Theirs"})
	require.NoError(t, err)

	d, err := f.doctors.Create(ctx, f.alice, DoctorInput{Name: "Dr. Ana", OrganizationIDs: []string{mine.ID, theirs.ID}})
	require.NoError(t, err)

	got, err := f.doctors.Get(ctx, f.alice, d.ID)
	require.NoError(t, err)
	require.Len(t, got.Organizations, 1)
	assert.Equal(t, "Mine", got.Organizations[0].Name)
}

func TestDoctorDelete_Cascades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.addDoctor("Dr. Ana", f.alice)
	appt := f.addAppointment(doc, f.alice, time.Now(), models.StatusCompleted)
	_, _, err := f.reports.CreateReport(ctx, f.alice, appt.ID, ReportInput{Objective: "x"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.doctors.Delete(ctx, f.bruno, doc.ID), ErrForbidden)
	require.NoError(t, f.doctors.Delete(ctx, f.alice, doc.ID))
	assert.Empty(t, f.db.Doctors)
	assert.Empty(t, f.db.Appointments)
	assert.Empty(t, f.db.Reports)

	assert.ErrorIs(t, f.doctors.Delete(ctx, f.alice, doc.ID), ErrNotFound)
}
