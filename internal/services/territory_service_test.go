package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/repository"
)

func TestTerritoryAdmin_ManagersOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.territories.ListTerritories(ctx, f.alice)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.territories.CreateTerritory(ctx, f.alice, TerritoryInput{Name: "North"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.territories.CreateAssignment(ctx, f.alice, AssignmentInput{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAssignments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.territories.now = func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }
	f.db.Users[f.alice.UserID] = models.User{BaseModel: models.BaseModel{ID: f.alice.UserID}, Username: "alice"}

	rep, err := f.territories.CreateRepresentative(ctx, f.manager, f.alice.UserID)
	require.NoError(t, err)
	again, err := f.territories.CreateRepresentative(ctx, f.manager, f.alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, again.ID)

	_, err = f.territories.CreateRepresentative(ctx, f.manager, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	north, err := f.territories.CreateTerritory(ctx, f.manager, TerritoryInput{Name: "North", Region: "AM"})
	require.NoError(t, err)
	doc := f.addDoctor("Dr. Ana", f.bruno)

	a, err := f.territories.CreateAssignment(ctx, f.manager, AssignmentInput{
		DoctorID: doc.ID, RepresentativeID: rep.ID, TerritoryID: north.ID, Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), a.MonthlyTarget)
	assert.Equal(t, "2025-03-10", a.StartDate.Format("2006-01-02"))

	_, err = f.territories.CreateAssignment(ctx, f.manager, AssignmentInput{
		DoctorID: doc.ID, RepresentativeID: rep.ID, TerritoryID: north.ID,
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.territories.CreateAssignment(ctx, f.manager, AssignmentInput{
		DoctorID: doc.ID, RepresentativeID: "nobody", TerritoryID: north.ID,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.territories.UpdateAssignment(ctx, f.manager, a.ID, AssignmentInput{
		DoctorID: doc.ID, RepresentativeID: rep.ID, TerritoryID: north.ID,
		StartDate: "2025-04-01", EndDate: "2025-03-01",
	})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := f.territories.UpdateAssignment(ctx, f.manager, a.ID, AssignmentInput{
		DoctorID: doc.ID, RepresentativeID: rep.ID, TerritoryID: north.ID,
		MonthlyTarget: 4, StartDate: "2025-04-01", EndDate: "2025-12-31",
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, uint(4), updated.MonthlyTarget)

	active, err := f.territories.ListAssignments(ctx, f.manager, repository.AssignmentFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, f.territories.DeleteTerritory(ctx, f.manager, north.ID), ErrInUse)
	require.NoError(t, f.territories.DeleteAssignment(ctx, f.manager, a.ID))
	require.NoError(t, f.territories.DeleteTerritory(ctx, f.manager, north.ID))
}
