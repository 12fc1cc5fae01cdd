package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/repository/repotest"
)

func TestUserService_ManagerOnly(t *testing.T) {
	f := newFixture()
	users := NewUserService(repotest.UserRepo{Store: f.db})

	_, err := users.List(context.Background(), f.alice)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = users.Create(context.Background(), f.alice, UserInput{Username: "x", Password: "123456"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserService_CreateAndUpdate(t *testing.T) {
	f := newFixture()
	users := NewUserService(repotest.UserRepo{Store: f.db})
	ctx := context.Background()

	u, err := users.Create(ctx, f.manager, UserInput{
		Username: "carla",
		Password: "secret1",
		Groups:   []string{models.GroupRepresentative},
	})
	require.NoError(t, err)
	assert.True(t, u.CheckPassword("secret1"))
	assert.True(t, u.InGroup(models.GroupRepresentative))

	_, err = users.Create(ctx, f.manager, UserInput{Username: "carla", Password: "secret1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = users.Create(ctx, f.manager, UserInput{Username: "dora"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = users.Create(ctx, f.manager, UserInput{Username: "dora", Password: "secret1", Groups: []string{"Root"}})
	assert.ErrorIs(t, err, ErrValidation)

	// Empty password and nil groups keep the current values.
	updated, err := users.Update(ctx, f.manager, u.ID, UserInput{Username: "carla", FirstName: "Carla"})
	require.NoError(t, err)
	assert.Equal(t, "Carla", updated.FirstName)
	assert.True(t, updated.CheckPassword("secret1"))
	stored := f.db.Users[u.ID]
	assert.True(t, stored.InGroup(models.GroupRepresentative))

	updated, err = users.Update(ctx, f.manager, u.ID, UserInput{Username: "carla", Groups: []string{models.GroupManager}})
	require.NoError(t, err)
	assert.True(t, updated.InGroup(models.GroupManager))
	stored = f.db.Users[u.ID]
	assert.False(t, stored.InGroup(models.GroupRepresentative))
}

func TestUserService_Delete(t *testing.T) {
	f := newFixture()
	users := NewUserService(repotest.UserRepo{Store: f.db})
	ctx := context.Background()

	u, err := users.Create(ctx, f.manager, UserInput{Username: "carla", Password: "secret1"})
	require.NoError(t, err)

	assert.ErrorIs(t, users.Delete(ctx, f.manager, f.manager.UserID), ErrValidation)
	require.NoError(t, users.Delete(ctx, f.manager, u.ID))
	assert.ErrorIs(t, users.Delete(ctx, f.manager, u.ID), ErrNotFound)
}
