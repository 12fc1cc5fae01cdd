package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

// TerritoryInput is the territory form.
type TerritoryInput struct {
	Name   string `json:"name" form:"name" validate:"required,max=80"`
	Region string `json:"region" form:"region" validate:"max=80"`
}

// AssignmentInput is the assignment form. StartDate defaults to today.
type AssignmentInput struct {
	DoctorID         string `json:"doctor" form:"doctor" validate:"required"`
	RepresentativeID string `json:"representative" form:"representative" validate:"required"`
	TerritoryID      string `json:"territory" form:"territory" validate:"required"`
	Active           bool   `json:"active" form:"active"`
	MonthlyTarget    uint   `json:"monthly_target" form:"monthly_target"`
	StartDate        string `json:"start_date" form:"start_date"`
	EndDate          string `json:"end_date" form:"end_date"`
}

// TerritoryService is the manager console for territories, representative
// profiles and assignments.
type TerritoryService struct {
	territories repository.TerritoryRepository
	doctors     repository.DoctorRepository
	users       repository.UserRepository
	now         func() time.Time
}

func NewTerritoryService(territories repository.TerritoryRepository, doctors repository.DoctorRepository, users repository.UserRepository) *TerritoryService {
	return &TerritoryService{territories: territories, doctors: doctors, users: users, now: time.Now}
}

func requireManager(actor policy.Actor) error {
	if !actor.Manager {
		return ErrForbidden
	}
	return nil
}

func (s *TerritoryService) ListTerritories(ctx context.Context, actor policy.Actor) ([]models.Territory, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.territories.ListTerritories(ctx)
}

func (s *TerritoryService) CreateTerritory(ctx context.Context, actor policy.Actor, in TerritoryInput) (*models.Territory, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	t := &models.Territory{Name: strings.TrimSpace(in.Name), Region: strings.TrimSpace(in.Region)}
	if err := s.territories.CreateTerritory(ctx, t); err != nil {
		return nil, fromRepo(err)
	}
	return t, nil
}

func (s *TerritoryService) UpdateTerritory(ctx context.Context, actor policy.Actor, id string, in TerritoryInput) (*models.Territory, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	t, err := s.territories.GetTerritory(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	t.Name = strings.TrimSpace(in.Name)
	t.Region = strings.TrimSpace(in.Region)
	if err := s.territories.UpdateTerritory(ctx, t); err != nil {
		return nil, fromRepo(err)
	}
	return t, nil
}

// DeleteTerritory fails with ErrInUse while assignments reference it.
func (s *TerritoryService) DeleteTerritory(ctx context.Context, actor policy.Actor, id string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	return fromRepo(s.territories.DeleteTerritory(ctx, id))
}

func (s *TerritoryService) ListRepresentatives(ctx context.Context, actor policy.Actor) ([]models.Representative, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.territories.ListRepresentatives(ctx)
}

// CreateRepresentative gives a user a field profile. It is idempotent.
func (s *TerritoryService) CreateRepresentative(ctx context.Context, actor policy.Actor, userID string) (*models.Representative, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if _, err := s.users.GetWithGroups(ctx, userID); err != nil {
		return nil, fromRepo(err)
	}
	return ensureRepresentative(ctx, s.territories, userID)
}

func (s *TerritoryService) DeleteRepresentative(ctx context.Context, actor policy.Actor, id string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	return fromRepo(s.territories.DeleteRepresentative(ctx, id))
}

func (s *TerritoryService) ListAssignments(ctx context.Context, actor policy.Actor, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.territories.ListAssignments(ctx, filter)
}

func (s *TerritoryService) CreateAssignment(ctx context.Context, actor policy.Actor, in AssignmentInput) (*models.Assignment, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	a := &models.Assignment{}
	if err := s.applyAssignmentInput(ctx, a, in); err != nil {
		return nil, err
	}
	if err := s.territories.CreateAssignment(ctx, a); err != nil {
		return nil, fromRepo(err)
	}
	return a, nil
}

func (s *TerritoryService) UpdateAssignment(ctx context.Context, actor policy.Actor, id string, in AssignmentInput) (*models.Assignment, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	a, err := s.territories.GetAssignment(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if err := s.applyAssignmentInput(ctx, a, in); err != nil {
		return nil, err
	}
	if err := s.territories.UpdateAssignment(ctx, a); err != nil {
		return nil, fromRepo(err)
	}
	return a, nil
}

func (s *TerritoryService) DeleteAssignment(ctx context.Context, actor policy.Actor, id string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	return fromRepo(s.territories.DeleteAssignment(ctx, id))
}

func (s *TerritoryService) applyAssignmentInput(ctx context.Context, a *models.Assignment, in AssignmentInput) error {
	if in.MonthlyTarget == 0 {
		in.MonthlyTarget = 1
	}
	if err := validateInput(in); err != nil {
		return err
	}
	if _, err := s.doctors.GetByID(ctx, in.DoctorID); err != nil {
		return fmt.Errorf("%w: unknown doctor", ErrValidation)
	}
	if _, err := s.territories.GetTerritory(ctx, in.TerritoryID); err != nil {
		return fmt.Errorf("%w: unknown territory", ErrValidation)
	}
	reps, err := s.territories.ListRepresentatives(ctx)
	if err != nil {
		return err
	}
	if !containsRepresentative(reps, in.RepresentativeID) {
		return fmt.Errorf("%w: unknown representative", ErrValidation)
	}

	start := s.now().Truncate(24 * time.Hour)
	if in.StartDate != "" {
		t, err := time.Parse(dateLayout, in.StartDate)
		if err != nil {
			return fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrValidation)
		}
		start = t
	}
	var end *time.Time
	if in.EndDate != "" {
		t, err := time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrValidation)
		}
		if t.Before(start) {
			return fmt.Errorf("%w: end_date is before start_date", ErrValidation)
		}
		end = &t
	}

	a.DoctorID = in.DoctorID
	a.RepresentativeID = in.RepresentativeID
	a.TerritoryID = in.TerritoryID
	a.Active = in.Active
	a.MonthlyTarget = in.MonthlyTarget
	a.StartDate = start
	a.EndDate = end
	return nil
}

func ensureRepresentative(ctx context.Context, territories repository.TerritoryRepository, userID string) (*models.Representative, error) {
	rep, err := territories.GetRepresentativeByUserID(ctx, userID)
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	rep = &models.Representative{UserID: userID}
	if err := territories.CreateRepresentative(ctx, rep); err != nil {
		return nil, fromRepo(err)
	}
	return rep, nil
}

func containsRepresentative(reps []models.Representative, id string) bool {
	for _, r := range reps {
		if r.ID == id {
			return true
		}
	}
	return false
}
