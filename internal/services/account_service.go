package services

import (
	"context"
	"errors"
	"fmt"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

type seedUser struct {
	username  string
	group     string
	superuser bool
}

var seedUsers = []seedUser{
	{"admin", models.GroupAdmin, true},
	{"gestor", models.GroupManager, false},
	{"rep", models.GroupRepresentative, false},
	{"mkt", models.GroupMarketing, false},
}

// AccountService resolves request actors and seeds access groups.
type AccountService struct {
	users       repository.UserRepository
	territories repository.TerritoryRepository
}

func NewAccountService(users repository.UserRepository, territories repository.TerritoryRepository) *AccountService {
	return &AccountService{users: users, territories: territories}
}

// ResolveActor loads the user with its groups and representative profile.
func (s *AccountService) ResolveActor(ctx context.Context, userID string) (policy.Actor, error) {
	user, err := s.users.GetWithGroups(ctx, userID)
	if err != nil {
		return policy.Actor{}, fromRepo(err)
	}
	rep, err := s.territories.GetRepresentativeByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return policy.Actor{}, err
	}
	return policy.NewActor(user, rep), nil
}

// SeedRBAC creates the four access groups and one sample user per group,
// all with the given password. The representative user also gets a field
// profile. Running it again resets the sample users.
func (s *AccountService) SeedRBAC(ctx context.Context, password string) ([]models.User, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	groups := make(map[string]models.Group, len(seedUsers))
	for _, su := range seedUsers {
		g, err := s.users.EnsureGroup(ctx, su.group)
		if err != nil {
			return nil, fmt.Errorf("ensure group %s: %w", su.group, err)
		}
		groups[su.group] = *g
	}

	users := make([]models.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u := models.User{
			Username:    su.username,
			Email:       su.username + "@example.com",
			IsSuperuser: su.superuser,
		}
		if err := u.SetPassword(password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.users.UpsertUser(ctx, &u, []models.Group{groups[su.group]}); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", su.username, err)
		}
		if su.group == models.GroupRepresentative {
			if _, err := ensureRepresentative(ctx, s.territories, u.ID); err != nil {
				return nil, fmt.Errorf("seed representative profile: %w", err)
			}
		}
		u.Groups = []models.Group{groups[su.group]}
		users = append(users, u)
	}
	return users, nil
}
