package services

import (
	"context"
	"fmt"
	"strings"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

// DoctorInput is the contact form.
type DoctorInput struct {
	Name            string   `json:"name" form:"name" validate:"required,max=120"`
	LicenseCode     string   `json:"license_code" form:"license_code" validate:"max=50"`
	Region          string   `json:"region" form:"region" validate:"max=2"`
	Specialty       string   `json:"specialty" form:"specialty" validate:"max=120"`
	Email           string   `json:"email" form:"email" validate:"omitempty,email,max=255"`
	Phone           string   `json:"phone" form:"phone" validate:"max=50"`
	Notes           string   `json:"notes" form:"notes"`
	OwnerID         string   `json:"owner" form:"owner"`
	OrganizationIDs []string `json:"organizations" form:"organizations"`
}

// DoctorService manages contacts.
type DoctorService struct {
	doctors       repository.DoctorRepository
	organizations repository.OrganizationRepository
	territories   repository.TerritoryRepository
}

func NewDoctorService(doctors repository.DoctorRepository, organizations repository.OrganizationRepository, territories repository.TerritoryRepository) *DoctorService {
	return &DoctorService{doctors: doctors, organizations: organizations, territories: territories}
}

// List returns the doctors the actor can see, newest first.
func (s *DoctorService) List(ctx context.Context, actor policy.Actor) ([]models.Doctor, error) {
	return s.doctors.List(ctx, actor.Scope())
}

// Get returns a doctor the actor can read. Representatives can read doctors
// they own and doctors under one of their active assignments.
func (s *DoctorService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if actor.CanMutate(d.OwnerID) {
		return d, nil
	}
	ok, err := s.territories.HasActiveAssignment(ctx, d.ID, actor.RepresentativeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return d, nil
}

func (s *DoctorService) Create(ctx context.Context, actor policy.Actor, in DoctorInput) (*models.Doctor, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	d := &models.Doctor{OwnerID: actor.OwnerForCreate(optional(in.OwnerID))}
	applyDoctorInput(d, in)
	if err := s.checkUnique(ctx, d); err != nil {
		return nil, err
	}
	orgIDs, err := s.visibleOrganizations(ctx, actor, in.OrganizationIDs)
	if err != nil {
		return nil, err
	}

	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, fromRepo(err)
	}
	if err := s.doctors.SetOrganizations(ctx, d.ID, orgIDs); err != nil {
		return nil, fmt.Errorf("link organizations: %w", err)
	}
	return d, nil
}

func (s *DoctorService) Update(ctx context.Context, actor policy.Actor, id string, in DoctorInput) (*models.Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !actor.CanMutate(d.OwnerID) {
		return nil, ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	applyDoctorInput(d, in)
	d.OwnerID = actor.OwnerForUpdate(d.OwnerID, optional(in.OwnerID))
	if err := s.checkUnique(ctx, d); err != nil {
		return nil, err
	}
	orgIDs, err := s.visibleOrganizations(ctx, actor, in.OrganizationIDs)
	if err != nil {
		return nil, err
	}

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, fromRepo(err)
	}
	if err := s.doctors.SetOrganizations(ctx, d.ID, orgIDs); err != nil {
		return nil, fmt.Errorf("link organizations: %w", err)
	}
	return d, nil
}

// Delete removes the doctor with its appointments, reports and assignments.
func (s *DoctorService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return fromRepo(err)
	}
	if !actor.CanMutate(d.OwnerID) {
		return ErrForbidden
	}
	return fromRepo(s.doctors.Delete(ctx, id))
}

func (s *DoctorService) checkUnique(ctx context.Context, d *models.Doctor) error {
	d.NormalizeKeys()
	exists, err := s.doctors.ExistsNameLicense(ctx, d.NameKey, d.LicenseCode, d.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: a doctor with this name and license code already exists", ErrDuplicate)
	}
	exists, err = s.doctors.ExistsLicenseRegion(ctx, d.LicenseCode, d.Region, d.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: license code already registered in region %s", ErrDuplicate, d.Region)
	}
	return nil
}

// visibleOrganizations drops submitted organization ids the actor cannot see.
func (s *DoctorService) visibleOrganizations(ctx context.Context, actor policy.Actor, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	orgs, err := s.organizations.List(ctx, actor.Scope())
	if err != nil {
		return nil, err
	}
	visible := make(map[string]bool, len(orgs))
	for _, o := range orgs {
		visible[o.ID] = true
	}
	var out []string
	for _, id := range ids {
		if visible[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func applyDoctorInput(d *models.Doctor, in DoctorInput) {
	d.Name = in.Name
	d.LicenseCode = in.LicenseCode
	d.Region = in.Region
	d.Specialty = in.Specialty
	d.Email = in.Email
	d.Phone = in.Phone
	d.Notes = in.Notes
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
