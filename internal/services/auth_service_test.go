package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-crm-server/internal/config"
	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/repository/repotest"
)

func newAuthFixture(t *testing.T) (*AuthService, *repotest.Store, models.User) {
	t.Helper()
	db := repotest.NewStore()
	cfg := &config.Config{
		JWTSecret:                 "access",
		JWTRefreshSecret:          "refresh",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
	}
	u := models.User{Username: "rep"}
	require.NoError(t, u.SetPassword("123456"))
	require.NoError(t, repotest.UserRepo{Store: db}.Create(context.Background(), &u, nil))
	return NewAuthService(repotest.UserRepo{Store: db}, repotest.TokenRepo{Store: db}, cfg), db, u
}

func TestAuthService_Login(t *testing.T) {
	auth, db, u := newAuthFixture(t)
	ctx := context.Background()

	session, err := auth.Login(ctx, " rep ", "123456")
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.User.ID)
	assert.NotEmpty(t, session.AccessToken)
	assert.Contains(t, db.Tokens, session.RefreshToken)

	_, err = auth.Login(ctx, "rep", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = auth.Login(ctx, "nobody", "123456")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	auth, db, _ := newAuthFixture(t)
	ctx := context.Background()

	session, err := auth.Login(ctx, "rep", "123456")
	require.NoError(t, err)

	next, err := auth.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)
	assert.True(t, db.Tokens[session.RefreshToken].IsRevoked)

	_, err = auth.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	auth, db, _ := newAuthFixture(t)
	ctx := context.Background()

	session, err := auth.Login(ctx, "rep", "123456")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, session.RefreshToken))
	assert.True(t, db.Tokens[session.RefreshToken].IsRevoked)
	require.NoError(t, auth.Logout(ctx, "unknown"))
	assert.ErrorIs(t, auth.Logout(ctx, ""), ErrValidation)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	auth, _, u := newAuthFixture(t)
	ctx := context.Background()

	updated, err := auth.UpdateProfile(ctx, u.ID, ProfileInput{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, "ana@example.com", updated.Email)

	_, err = auth.UpdateProfile(ctx, u.ID, ProfileInput{Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = auth.Profile(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
