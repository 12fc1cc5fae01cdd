package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerritoryRepository_HasActiveAssignment(t *testing.T) {
	db := newTestDB(t)
	repo := NewTerritoryRepository(db)
	ctx := context.Background()

	alice := addUser(t, db, "alice")
	rep := addRepresentative(t, db, alice)
	active := addDoctor(t, db, "Dra. Ana", alice)
	paused := addDoctor(t, db, "Dr. Beto", alice)
	addAssignment(t, db, active, rep, true)
	assignment := addAssignment(t, db, paused, rep, false)

	ok, err := repo.HasActiveAssignment(ctx, active.ID, rep.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasActiveAssignment(ctx, paused.ID, rep.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.HasActiveAssignment(ctx, active.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, repo.DeleteTerritory(ctx, assignment.TerritoryID), ErrInUse)
	require.NoError(t, repo.DeleteAssignment(ctx, assignment.ID))
	require.NoError(t, repo.DeleteTerritory(ctx, assignment.TerritoryID))
	assert.ErrorIs(t, repo.DeleteAssignment(ctx, assignment.ID), ErrNotFound)
}
