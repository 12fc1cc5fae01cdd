package services

import (
	"context"
	"strings"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

// OrganizationInput is the organization form.
type OrganizationInput struct {
	Name    string `json:"name" form:"name" validate:"required,max=160"`
	TaxID   string `json:"tax_id" form:"tax_id" validate:"max=32"`
	City    string `json:"city" form:"city" validate:"max=80"`
	Region  string `json:"region" form:"region" validate:"max=2"`
	Phone   string `json:"phone" form:"phone" validate:"max=50"`
	Notes   string `json:"notes" form:"notes"`
	OwnerID string `json:"owner" form:"owner"`
}

type OrganizationService struct {
	organizations repository.OrganizationRepository
}

func NewOrganizationService(organizations repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{organizations: organizations}
}

func (s *OrganizationService) List(ctx context.Context, actor policy.Actor) ([]models.Organization, error) {
	return s.organizations.List(ctx, actor.Scope())
}

func (s *OrganizationService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Organization, error) {
	o, err := s.organizations.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !actor.CanMutate(o.OwnerID) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *OrganizationService) Create(ctx context.Context, actor policy.Actor, in OrganizationInput) (*models.Organization, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	o := &models.Organization{OwnerID: actor.OwnerForCreate(optional(in.OwnerID))}
	applyOrganizationInput(o, in)
	if err := s.organizations.Create(ctx, o); err != nil {
		return nil, fromRepo(err)
	}
	return o, nil
}

func (s *OrganizationService) Update(ctx context.Context, actor policy.Actor, id string, in OrganizationInput) (*models.Organization, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	applyOrganizationInput(o, in)
	o.OwnerID = actor.OwnerForUpdate(o.OwnerID, optional(in.OwnerID))
	if err := s.organizations.Update(ctx, o); err != nil {
		return nil, fromRepo(err)
	}
	return o, nil
}

// Delete removes the organization. Its deals stay, without organization.
func (s *OrganizationService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return fromRepo(s.organizations.Delete(ctx, id))
}

func applyOrganizationInput(o *models.Organization, in OrganizationInput) {
	o.Name = strings.TrimSpace(in.Name)
	o.TaxID = strings.TrimSpace(in.TaxID)
	o.City = strings.TrimSpace(in.City)
	o.Region = strings.ToUpper(strings.TrimSpace(in.Region))
	o.Phone = strings.TrimSpace(in.Phone)
	o.Notes = in.Notes
}
