package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pharma-crm-server/internal/models"
)

// UserRepository loads actors and manages accounts and privilege groups.
type UserRepository interface {
	GetWithGroups(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Create inserts the user and links it to groups.
	Create(ctx context.Context, user *models.User, groups []models.Group) error
	// Update saves the user. A nil groups slice leaves memberships alone.
	Update(ctx context.Context, user *models.User, groups []models.Group) error
	Delete(ctx context.Context, id string) error
	EnsureGroup(ctx context.Context, name string) (*models.Group, error)
	// UpsertUser creates the user or updates its flags and password, then
	// replaces its groups.
	UpsertUser(ctx context.Context, user *models.User, groups []models.Group) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a gorm backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetWithGroups(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Preload("Groups").First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Preload("Groups").First(&u, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Groups").Order("username").Find(&users).Error
	return users, err
}

func (r *userRepository) Create(ctx context.Context, user *models.User, groups []models.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Groups").Create(user).Error; err != nil {
			return translate(err)
		}
		if len(groups) == 0 {
			return nil
		}
		return tx.Model(user).Association("Groups").Replace(groups)
	})
}

func (r *userRepository) Update(ctx context.Context, user *models.User, groups []models.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Groups").Save(user).Error; err != nil {
			return translate(err)
		}
		if groups == nil {
			return nil
		}
		return tx.Model(user).Association("Groups").Replace(groups)
	})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{BaseModel: models.BaseModel{ID: id}}
		if err := tx.Model(&user).Association("Groups").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *userRepository) EnsureGroup(ctx context.Context, name string) (*models.Group, error) {
	var g models.Group
	err := r.db.WithContext(ctx).Where(models.Group{Name: name}).FirstOrCreate(&g).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *userRepository) UpsertUser(ctx context.Context, user *models.User, groups []models.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.First(&existing, "username = ?", user.Username).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit("Groups").Create(user).Error; err != nil {
				return translate(err)
			}
		case err != nil:
			return err
		default:
			user.ID = existing.ID
			user.CreatedAt = existing.CreatedAt
			if err := tx.Omit("Groups").Save(user).Error; err != nil {
				return translate(err)
			}
		}
		return tx.Model(user).Association("Groups").Replace(groups)
	})
}
