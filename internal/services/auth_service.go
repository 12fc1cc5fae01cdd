package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharma-crm-server/internal/config"
	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/repository"
	"pharma-crm-server/internal/utils"
)

// Session is the result of a login or a refresh.
type Session struct {
	AccessToken      string               `json:"accessToken"`
	RefreshToken     string               `json:"refreshToken"`
	RefreshExpiresAt time.Time            `json:"-"`
	User             models.UserSanitized `json:"user"`
}

// ProfileInput is the self-service profile form. Empty fields are kept.
type ProfileInput struct {
	FirstName string `json:"firstName" form:"first_name" validate:"max=100"`
	LastName  string `json:"lastName" form:"last_name" validate:"max=100"`
	Email     string `json:"email" form:"email" validate:"omitempty,email,max=255"`
}

// AuthService issues and rotates JWT sessions.
type AuthService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	cfg    *config.Config
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens repository.RefreshTokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, now: time.Now}
}

// Login checks the password and opens a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrBadCredentials
	}
	return s.issue(ctx, user)
}

// Refresh revokes the presented refresh token and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := utils.ValidateToken(refreshToken, s.cfg.JWTRefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := s.tokens.FindActive(ctx, refreshToken, claims.UserID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	user, err := s.users.GetWithGroups(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if err := s.tokens.Revoke(ctx, refreshToken, s.now()); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.issue(ctx, user)
}

// Logout revokes a refresh token. Unknown tokens are accepted.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh token is required", ErrValidation)
	}
	return s.tokens.Revoke(ctx, refreshToken, s.now())
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetWithGroups(ctx, userID)
	if err != nil {
		return nil, fromRepo(err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetWithGroups(ctx, userID)
	if err != nil {
		return nil, fromRepo(err)
	}
	if in.FirstName != "" {
		user.FirstName = strings.TrimSpace(in.FirstName)
	}
	if in.LastName != "" {
		user.LastName = strings.TrimSpace(in.LastName)
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if err := s.users.Update(ctx, user, nil); err != nil {
		return nil, fromRepo(err)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*Session, error) {
	access, refresh, err := utils.GenerateTokens(user.ID, s.cfg)
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(utils.RefreshTTL(s.cfg))
	if err := s.tokens.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: expires,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Session{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: expires,
		User:             user.Sanitize(),
	}, nil
}
