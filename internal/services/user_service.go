package services

import (
	"context"
	"fmt"
	"strings"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

// UserInput is the admin account form. On update an empty password keeps
// the current one and a nil Groups keeps the memberships.
type UserInput struct {
	Username    string   `json:"username" form:"username" validate:"required,max=150"`
	Email       string   `json:"email" form:"email" validate:"omitempty,email,max=255"`
	Password    string   `json:"password" form:"password" validate:"omitempty,min=6"`
	FirstName   string   `json:"firstName" form:"first_name" validate:"max=100"`
	LastName    string   `json:"lastName" form:"last_name" validate:"max=100"`
	IsSuperuser bool     `json:"isSuperuser" form:"is_superuser"`
	Groups      []string `json:"groups" form:"groups"`
}

// UserService is the manager console for accounts.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context, actor policy.Actor) ([]models.User, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, actor policy.Actor, id string) (*models.User, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	u, err := s.users.GetWithGroups(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, actor policy.Actor, in UserInput) (*models.User, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, fmt.Errorf("%w: username %q is taken", ErrDuplicate, in.Username)
	}
	groups, err := s.groups(ctx, in.Groups)
	if err != nil {
		return nil, err
	}
	u := &models.User{}
	if err := applyUserInput(u, in); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u, groups); err != nil {
		return nil, fromRepo(err)
	}
	u.Groups = groups
	return u, nil
}

func (s *UserService) Update(ctx context.Context, actor policy.Actor, id string, in UserInput) (*models.User, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	u, err := s.users.GetWithGroups(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if in.Username != u.Username {
		if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
			return nil, fmt.Errorf("%w: username %q is taken", ErrDuplicate, in.Username)
		}
	}
	var groups []models.Group
	if in.Groups != nil {
		if groups, err = s.groups(ctx, in.Groups); err != nil {
			return nil, err
		}
	}
	if err := applyUserInput(u, in); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u, groups); err != nil {
		return nil, fromRepo(err)
	}
	if groups != nil {
		u.Groups = groups
	}
	return u, nil
}

// Delete removes an account. Managers cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}
	return fromRepo(s.users.Delete(ctx, id))
}

// groups resolves group names, creating the known access groups on demand.
func (s *UserService) groups(ctx context.Context, names []string) ([]models.Group, error) {
	out := make([]models.Group, 0, len(names))
	for _, name := range names {
		if !knownGroup(name) {
			return nil, fmt.Errorf("%w: unknown group %q", ErrValidation, name)
		}
		g, err := s.users.EnsureGroup(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, nil
}

func knownGroup(name string) bool {
	switch name {
	case models.GroupAdmin, models.GroupManager, models.GroupRepresentative, models.GroupMarketing:
		return true
	}
	return false
}

func applyUserInput(u *models.User, in UserInput) error {
	u.Username = in.Username
	u.Email = in.Email
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.IsSuperuser = in.IsSuperuser
	if in.Password != "" {
		if err := u.SetPassword(in.Password); err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
	}
	return nil
}
