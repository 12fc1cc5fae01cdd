package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
)

func TestSeedRBAC(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	users, err := f.accounts.SeedRBAC(ctx, "123456")
	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Len(t, f.db.Groups, 4)
	assert.Len(t, f.db.Representatives, 1)

	byName := map[string]models.User{}
	for _, u := range f.db.Users {
		byName[u.Username] = u
	}
	assert.True(t, byName["admin"].IsSuperuser)
	gestor, rep := byName["gestor"], byName["rep"]
	assert.True(t, gestor.InGroup(models.GroupManager))
	assert.True(t, rep.CheckPassword("123456"))

	// Re-running resets the same users instead of duplicating them.
	_, err = f.accounts.SeedRBAC(ctx, "654321")
	require.NoError(t, err)
	assert.Len(t, f.db.Users, 4)
	assert.Len(t, f.db.Representatives, 1)

	_, err = f.accounts.SeedRBAC(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveActor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.accounts.SeedRBAC(ctx, "123456")
	require.NoError(t, err)

	actors := map[string]policy.Actor{}
	for id, u := range f.db.Users {
		a, err := f.accounts.ResolveActor(ctx, id)
		require.NoError(t, err)
		actors[u.Username] = a
	}

	assert.True(t, actors["admin"].Manager)
	assert.True(t, actors["gestor"].Manager)
	assert.False(t, actors["rep"].Manager)
	assert.NotEmpty(t, actors["rep"].RepresentativeID)
	assert.False(t, actors["mkt"].Manager)
	assert.Empty(t, actors["mkt"].RepresentativeID)

	_, err = f.accounts.ResolveActor(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
