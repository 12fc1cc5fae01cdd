package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pharma-crm-server/internal/models"
)

// RefreshTokenRepository stores issued refresh tokens so they can be
// rotated and revoked.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	// FindActive returns the unrevoked, unexpired token issued to userID.
	FindActive(ctx context.Context, token, userID string, now time.Time) (*models.RefreshToken, error)
	// Revoke marks the token revoked and expired. Unknown or already revoked
	// tokens are not an error.
	Revoke(ctx context.Context, token string, now time.Time) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a gorm backed RefreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(token).Error)
}

func (r *refreshTokenRepository) FindActive(ctx context.Context, token, userID string, now time.Time) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND user_id = ? AND is_revoked = ? AND expires_at > ?", token, userID, false, now).
		First(&stored).Error
	if err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, token string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", token, false).
		Updates(map[string]interface{}{"is_revoked": true, "expires_at": now}).Error
}
