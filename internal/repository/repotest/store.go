// Package repotest provides in-memory repositories for tests. They share a
// Store so cross-table rules (visibility through assignments, cascades,
// report uniqueness) behave like the database.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

// Store holds the rows behind every in-memory repository.
type Store struct {
	seq   int
	epoch time.Time

	Doctors         map[string]models.Doctor
	DoctorOrgs      map[string][]string
	Appointments    map[string]models.Appointment
	Reports         map[string]models.VisitReport
	Organizations   map[string]models.Organization
	Pipelines       map[string]models.Pipeline
	Stages          map[string]models.Stage
	Deals           map[string]models.Deal
	Representatives map[string]models.Representative
	Territories     map[string]models.Territory
	Assignments     map[string]models.Assignment
	Users           map[string]models.User
	Groups          map[string]models.Group
	Tokens          map[string]models.RefreshToken
}

// NewStore returns an empty store whose clock starts at 2025-01-01 UTC.
func NewStore() *Store {
	return &Store{
		epoch:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Doctors:         map[string]models.Doctor{},
		DoctorOrgs:      map[string][]string{},
		Appointments:    map[string]models.Appointment{},
		Reports:         map[string]models.VisitReport{},
		Organizations:   map[string]models.Organization{},
		Pipelines:       map[string]models.Pipeline{},
		Stages:          map[string]models.Stage{},
		Deals:           map[string]models.Deal{},
		Representatives: map[string]models.Representative{},
		Territories:     map[string]models.Territory{},
		Assignments:     map[string]models.Assignment{},
		Users:           map[string]models.User{},
		Groups:          map[string]models.Group{},
		Tokens:          map[string]models.RefreshToken{},
	}
}

// stamp assigns an id when missing and a monotonically increasing
// timestamp so ordering by creation or update is deterministic.
func (m *Store) stamp(base *models.BaseModel, prefix string) {
	m.seq++
	now := m.epoch.Add(time.Duration(m.seq) * time.Second)
	if base.ID == "" {
		base.ID = fmt.Sprintf("%s-%d", prefix, m.seq)
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func inScope(scope policy.Scope, ownerID *string) bool {
	return scope.Unrestricted() || (ownerID != nil && *ownerID == *scope.OwnerID)
}

func (m *Store) activelyAssigned(doctorID, repID string) bool {
	if repID == "" {
		return false
	}
	for _, a := range m.Assignments {
		if a.DoctorID == doctorID && a.RepresentativeID == repID && a.Active {
			return true
		}
	}
	return false
}

func (m *Store) covered(c repository.Coverage, doctorID string) bool {
	switch {
	case c.RepresentativeID != "":
		return m.activelyAssigned(doctorID, c.RepresentativeID)
	case c.OwnerID != "":
		d, ok := m.Doctors[doctorID]
		return ok && d.OwnerID != nil && *d.OwnerID == c.OwnerID
	}
	return true
}

// --- doctors ---

type DoctorRepo struct{ *Store }

func (r DoctorRepo) List(_ context.Context, scope policy.Scope) ([]models.Doctor, error) {
	var out []models.Doctor
	for _, d := range r.Doctors {
		if inScope(scope, d.OwnerID) || r.activelyAssigned(d.ID, scope.RepresentativeID) {
			out = append(out, r.withOrgs(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r DoctorRepo) CountCovered(_ context.Context, c repository.Coverage) (int64, error) {
	var n int64
	for id := range r.Doctors {
		if r.covered(c, id) {
			n++
		}
	}
	return n, nil
}

func (r DoctorRepo) withOrgs(d models.Doctor) models.Doctor {
	d.Organizations = nil
	for _, id := range r.DoctorOrgs[d.ID] {
		d.Organizations = append(d.Organizations, r.Organizations[id])
	}
	return d
}

func (r DoctorRepo) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	d, ok := r.Doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d = r.withOrgs(d)
	return &d, nil
}

func (r DoctorRepo) ExistsNameLicense(_ context.Context, nameKey, licenseCode, excludeID string) (bool, error) {
	for _, d := range r.Doctors {
		if d.ID != excludeID && d.NameKey == nameKey && d.LicenseCode == licenseCode {
			return true, nil
		}
	}
	return false, nil
}

func (r DoctorRepo) ExistsLicenseRegion(_ context.Context, licenseCode, region, excludeID string) (bool, error) {
	if licenseCode == "" {
		return false, nil
	}
	for _, d := range r.Doctors {
		if d.ID != excludeID && d.LicenseCode == licenseCode && d.Region == region {
			return true, nil
		}
	}
	return false, nil
}

func (r DoctorRepo) Create(_ context.Context, d *models.Doctor) error {
	d.NormalizeKeys()
	r.stamp(&d.BaseModel, "doc")
	stored := *d
	stored.Organizations = nil
	r.Doctors[d.ID] = stored
	return nil
}

func (r DoctorRepo) Update(_ context.Context, d *models.Doctor) error {
	if _, ok := r.Doctors[d.ID]; !ok {
		return repository.ErrNotFound
	}
	d.NormalizeKeys()
	r.stamp(&d.BaseModel, "doc")
	stored := *d
	stored.Organizations = nil
	r.Doctors[d.ID] = stored
	return nil
}

func (r DoctorRepo) SetOrganizations(_ context.Context, doctorID string, organizationIDs []string) error {
	r.DoctorOrgs[doctorID] = append([]string(nil), organizationIDs...)
	return nil
}

func (r DoctorRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.Doctors[id]; !ok {
		return repository.ErrNotFound
	}
	for aid, a := range r.Appointments {
		if a.DoctorID == id {
			delete(r.Appointments, aid)
			for rid, rep := range r.Reports {
				if rep.AppointmentID == aid {
					delete(r.Reports, rid)
				}
			}
		}
	}
	for aid, a := range r.Assignments {
		if a.DoctorID == id {
			delete(r.Assignments, aid)
		}
	}
	delete(r.DoctorOrgs, id)
	delete(r.Doctors, id)
	return nil
}

// --- appointments ---

type AppointmentRepo struct{ *Store }

func (r AppointmentRepo) hydrate(a models.Appointment) models.Appointment {
	a.Doctor = r.Doctors[a.DoctorID]
	return a
}

func (r AppointmentRepo) List(_ context.Context, scope policy.Scope, filter repository.AppointmentFilter) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range r.Appointments {
		if !inScope(scope, a.OwnerID) {
			continue
		}
		if filter.DoctorID != "" && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, r.hydrate(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return out, nil
}

func (r AppointmentRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	a, ok := r.Appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a = r.hydrate(a)
	return &a, nil
}

func (r AppointmentRepo) Create(_ context.Context, a *models.Appointment) error {
	r.stamp(&a.BaseModel, "appt")
	stored := *a
	stored.Doctor = models.Doctor{}
	r.Appointments[a.ID] = stored
	return nil
}

func (r AppointmentRepo) Update(_ context.Context, a *models.Appointment) error {
	if _, ok := r.Appointments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	r.stamp(&a.BaseModel, "appt")
	stored := *a
	stored.Doctor = models.Doctor{}
	r.Appointments[a.ID] = stored
	return nil
}

func (r AppointmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.Appointments[id]; !ok {
		return repository.ErrNotFound
	}
	for rid, rep := range r.Reports {
		if rep.AppointmentID == id {
			delete(r.Reports, rid)
		}
	}
	delete(r.Appointments, id)
	return nil
}

func (r AppointmentRepo) Upcoming(_ context.Context, scope policy.Scope, from, to time.Time, limit int) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range r.Appointments {
		if !inScope(scope, a.OwnerID) || a.Status != models.StatusScheduled {
			continue
		}
		if a.ScheduledAt.Before(from) || a.ScheduledAt.After(to) {
			continue
		}
		out = append(out, r.hydrate(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r AppointmentRepo) CountSince(_ context.Context, c repository.Coverage, since time.Time) (int64, int64, error) {
	var visits int64
	visited := map[string]bool{}
	for _, a := range r.Appointments {
		if r.covered(c, a.DoctorID) && !a.ScheduledAt.Before(since) {
			visits++
			visited[a.DoctorID] = true
		}
	}
	return visits, int64(len(visited)), nil
}

// --- reports ---

type ReportRepo struct{ *Store }

func (r ReportRepo) GetByID(_ context.Context, id string) (*models.VisitReport, error) {
	rep, ok := r.Reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	appt := r.Appointments[rep.AppointmentID]
	appt.Doctor = r.Doctors[appt.DoctorID]
	rep.Appointment = appt
	return &rep, nil
}

func (r ReportRepo) GetByAppointmentID(_ context.Context, appointmentID string) (*models.VisitReport, error) {
	for _, rep := range r.Reports {
		if rep.AppointmentID == appointmentID {
			return &rep, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r ReportRepo) ListByAppointmentIDs(_ context.Context, appointmentIDs []string) ([]models.VisitReport, error) {
	wanted := make(map[string]bool, len(appointmentIDs))
	for _, id := range appointmentIDs {
		wanted[id] = true
	}
	var out []models.VisitReport
	for _, rep := range r.Reports {
		if wanted[rep.AppointmentID] {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r ReportRepo) Create(_ context.Context, report *models.VisitReport) error {
	for _, rep := range r.Reports {
		if rep.AppointmentID == report.AppointmentID {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&report.BaseModel, "report")
	stored := *report
	stored.Appointment = models.Appointment{}
	r.Reports[report.ID] = stored
	return nil
}

func (r ReportRepo) Update(_ context.Context, report *models.VisitReport) error {
	if _, ok := r.Reports[report.ID]; !ok {
		return repository.ErrNotFound
	}
	r.stamp(&report.BaseModel, "report")
	stored := *report
	stored.Appointment = models.Appointment{}
	r.Reports[report.ID] = stored
	return nil
}

// --- organizations ---

type OrganizationRepo struct{ *Store }

func (r OrganizationRepo) List(_ context.Context, scope policy.Scope) ([]models.Organization, error) {
	var out []models.Organization
	for _, o := range r.Organizations {
		if inScope(scope, o.OwnerID) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r OrganizationRepo) GetByID(_ context.Context, id string) (*models.Organization, error) {
	o, ok := r.Organizations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r OrganizationRepo) Create(_ context.Context, o *models.Organization) error {
	for _, existing := range r.Organizations {
		if existing.Name == o.Name {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&o.BaseModel, "org")
	r.Organizations[o.ID] = *o
	return nil
}

func (r OrganizationRepo) Update(_ context.Context, o *models.Organization) error {
	if _, ok := r.Organizations[o.ID]; !ok {
		return repository.ErrNotFound
	}
	r.stamp(&o.BaseModel, "org")
	r.Organizations[o.ID] = *o
	return nil
}

func (r OrganizationRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.Organizations[id]; !ok {
		return repository.ErrNotFound
	}
	for did, d := range r.Deals {
		if d.OrganizationID != nil && *d.OrganizationID == id {
			d.OrganizationID = nil
			r.Deals[did] = d
		}
	}
	delete(r.Organizations, id)
	return nil
}

// --- pipelines and deals ---

type PipelineRepo struct{ *Store }

func (r PipelineRepo) withStages(p models.Pipeline) models.Pipeline {
	p.Stages = nil
	for _, s := range r.Stages {
		if s.PipelineID == p.ID {
			p.Stages = append(p.Stages, s)
		}
	}
	sort.Slice(p.Stages, func(i, j int) bool { return p.Stages[i].Position < p.Stages[j].Position })
	return p
}

func (r PipelineRepo) FirstOrSeed(ctx context.Context, name string, stageNames []string) (*models.Pipeline, error) {
	var all []models.Pipeline
	for _, p := range r.Pipelines {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].IsDefault != all[j].IsDefault {
			return all[i].IsDefault
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if len(all) > 0 {
		p := r.withStages(all[0])
		return &p, nil
	}

	p := &models.Pipeline{Name: name, IsDefault: true}
	for i, stage := range stageNames {
		p.Stages = append(p.Stages, models.Stage{Name: stage, Position: i + 1})
	}
	if err := r.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r PipelineRepo) List(_ context.Context) ([]models.Pipeline, error) {
	var out []models.Pipeline
	for _, p := range r.Pipelines {
		out = append(out, r.withStages(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r PipelineRepo) GetByID(_ context.Context, id string) (*models.Pipeline, error) {
	p, ok := r.Pipelines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = r.withStages(p)
	return &p, nil
}

func (r PipelineRepo) Create(_ context.Context, p *models.Pipeline) error {
	for _, existing := range r.Pipelines {
		if existing.Name == p.Name {
			return repository.ErrDuplicate
		}
	}
	if p.IsDefault {
		for id, existing := range r.Pipelines {
			existing.IsDefault = false
			r.Pipelines[id] = existing
		}
	}
	r.stamp(&p.BaseModel, "pipe")
	for i := range p.Stages {
		p.Stages[i].PipelineID = p.ID
		r.stamp(&p.Stages[i].BaseModel, "stage")
		r.Stages[p.Stages[i].ID] = p.Stages[i]
	}
	stored := *p
	stored.Stages = nil
	r.Pipelines[p.ID] = stored
	return nil
}

func (r PipelineRepo) SetDefault(_ context.Context, id string) error {
	if _, ok := r.Pipelines[id]; !ok {
		return repository.ErrNotFound
	}
	for pid, p := range r.Pipelines {
		p.IsDefault = pid == id
		r.Pipelines[pid] = p
	}
	return nil
}

func (r PipelineRepo) GetStage(_ context.Context, id string) (*models.Stage, error) {
	s, ok := r.Stages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

type DealRepo struct{ *Store }

func (r DealRepo) hydrate(d models.Deal) models.Deal {
	if d.OrganizationID != nil {
		if o, ok := r.Organizations[*d.OrganizationID]; ok {
			d.Organization = &o
		}
	}
	if d.ContactID != nil {
		if c, ok := r.Doctors[*d.ContactID]; ok {
			d.Contact = &c
		}
	}
	return d
}

func (r DealRepo) List(_ context.Context, scope policy.Scope, pipelineID string) ([]models.Deal, error) {
	var out []models.Deal
	for _, d := range r.Deals {
		if !inScope(scope, d.OwnerID) || (pipelineID != "" && d.PipelineID != pipelineID) {
			continue
		}
		out = append(out, r.hydrate(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r DealRepo) GetByID(_ context.Context, id string) (*models.Deal, error) {
	d, ok := r.Deals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d = r.hydrate(d)
	return &d, nil
}

func (r DealRepo) Create(_ context.Context, d *models.Deal) error {
	r.stamp(&d.BaseModel, "deal")
	r.Deals[d.ID] = *d
	return nil
}

func (r DealRepo) Update(_ context.Context, d *models.Deal) error {
	if _, ok := r.Deals[d.ID]; !ok {
		return repository.ErrNotFound
	}
	r.stamp(&d.BaseModel, "deal")
	stored := *d
	stored.Organization, stored.Contact = nil, nil
	r.Deals[d.ID] = stored
	return nil
}

func (r DealRepo) UpdateStage(_ context.Context, dealID string, stage *models.Stage) error {
	d, ok := r.Deals[dealID]
	if !ok || d.PipelineID != stage.PipelineID {
		return repository.ErrNotFound
	}
	d.StageID = stage.ID
	r.stamp(&d.BaseModel, "deal")
	r.Deals[dealID] = d
	return nil
}

func (r DealRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.Deals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.Deals, id)
	return nil
}

// --- territories, representatives, assignments ---

type TerritoryRepo struct{ *Store }

func (r TerritoryRepo) ListTerritories(_ context.Context) ([]models.Territory, error) {
	var out []models.Territory
	for _, t := range r.Territories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r TerritoryRepo) GetTerritory(_ context.Context, id string) (*models.Territory, error) {
	t, ok := r.Territories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r TerritoryRepo) CreateTerritory(_ context.Context, t *models.Territory) error {
	for _, existing := range r.Territories {
		if existing.Name == t.Name {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&t.BaseModel, "terr")
	r.Territories[t.ID] = *t
	return nil
}

func (r TerritoryRepo) UpdateTerritory(_ context.Context, t *models.Territory) error {
	if _, ok := r.Territories[t.ID]; !ok {
		return repository.ErrNotFound
	}
	r.stamp(&t.BaseModel, "terr")
	r.Territories[t.ID] = *t
	return nil
}

func (r TerritoryRepo) DeleteTerritory(_ context.Context, id string) error {
	if _, ok := r.Territories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, a := range r.Assignments {
		if a.TerritoryID == id {
			return repository.ErrInUse
		}
	}
	delete(r.Territories, id)
	return nil
}

func (r TerritoryRepo) ListRepresentatives(_ context.Context) ([]models.Representative, error) {
	var out []models.Representative
	for _, rep := range r.Representatives {
		rep.User = r.Users[rep.UserID]
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r TerritoryRepo) GetRepresentativeByUserID(_ context.Context, userID string) (*models.Representative, error) {
	for _, rep := range r.Representatives {
		if rep.UserID == userID {
			return &rep, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r TerritoryRepo) CreateRepresentative(_ context.Context, rep *models.Representative) error {
	for _, existing := range r.Representatives {
		if existing.UserID == rep.UserID {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&rep.BaseModel, "rep")
	r.Representatives[rep.ID] = *rep
	return nil
}

func (r TerritoryRepo) DeleteRepresentative(_ context.Context, id string) error {
	if _, ok := r.Representatives[id]; !ok {
		return repository.ErrNotFound
	}
	for aid, a := range r.Assignments {
		if a.RepresentativeID == id {
			delete(r.Assignments, aid)
		}
	}
	delete(r.Representatives, id)
	return nil
}

func (r TerritoryRepo) ListAssignments(_ context.Context, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range r.Assignments {
		if filter.RepresentativeID != "" && a.RepresentativeID != filter.RepresentativeID {
			continue
		}
		if filter.TerritoryID != "" && a.TerritoryID != filter.TerritoryID {
			continue
		}
		if filter.ActiveOnly && !a.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r TerritoryRepo) GetAssignment(_ context.Context, id string) (*models.Assignment, error) {
	a, ok := r.Assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r TerritoryRepo) CreateAssignment(_ context.Context, a *models.Assignment) error {
	for _, existing := range r.Assignments {
		if existing.DoctorID == a.DoctorID && existing.RepresentativeID == a.RepresentativeID && existing.TerritoryID == a.TerritoryID {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&a.BaseModel, "asg")
	r.Assignments[a.ID] = *a
	return nil
}

func (r TerritoryRepo) UpdateAssignment(_ context.Context, a *models.Assignment) error {
	if _, ok := r.Assignments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	r.stamp(&a.BaseModel, "asg")
	r.Assignments[a.ID] = *a
	return nil
}

func (r TerritoryRepo) DeleteAssignment(_ context.Context, id string) error {
	if _, ok := r.Assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.Assignments, id)
	return nil
}

func (r TerritoryRepo) HasActiveAssignment(_ context.Context, doctorID, representativeID string) (bool, error) {
	return r.activelyAssigned(doctorID, representativeID), nil
}

// --- users ---

type UserRepo struct{ *Store }

func (r UserRepo) GetWithGroups(_ context.Context, id string) (*models.User, error) {
	u, ok := r.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r UserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.Users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r UserRepo) List(context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(r.Users))
	for _, u := range r.Users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r UserRepo) Create(_ context.Context, user *models.User, groups []models.Group) error {
	r.stamp(&user.BaseModel, "user")
	stored := *user
	stored.Groups = append([]models.Group(nil), groups...)
	r.Users[user.ID] = stored
	return nil
}

func (r UserRepo) Update(_ context.Context, user *models.User, groups []models.Group) error {
	existing, ok := r.Users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	r.stamp(&user.BaseModel, "user")
	stored := *user
	stored.Groups = existing.Groups
	if groups != nil {
		stored.Groups = append([]models.Group(nil), groups...)
	}
	r.Users[user.ID] = stored
	return nil
}

func (r UserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.Users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.Users, id)
	return nil
}

func (r UserRepo) EnsureGroup(_ context.Context, name string) (*models.Group, error) {
	if g, ok := r.Groups[name]; ok {
		return &g, nil
	}
	g := models.Group{Name: name}
	r.stamp(&g.BaseModel, "group")
	r.Groups[name] = g
	return &g, nil
}

func (r UserRepo) UpsertUser(_ context.Context, user *models.User, groups []models.Group) error {
	for _, existing := range r.Users {
		if existing.Username == user.Username {
			user.ID = existing.ID
			user.CreatedAt = existing.CreatedAt
		}
	}
	r.stamp(&user.BaseModel, "user")
	stored := *user
	stored.Groups = append([]models.Group(nil), groups...)
	r.Users[user.ID] = stored
	return nil
}

type TokenRepo struct{ *Store }

func (r TokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.stamp(&token.BaseModel, "token")
	r.Tokens[token.Token] = *token
	return nil
}

func (r TokenRepo) FindActive(_ context.Context, token, userID string, now time.Time) (*models.RefreshToken, error) {
	t, ok := r.Tokens[token]
	if !ok || t.UserID != userID || t.IsRevoked || !t.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r TokenRepo) Revoke(_ context.Context, token string, now time.Time) error {
	t, ok := r.Tokens[token]
	if !ok || t.IsRevoked {
		return nil
	}
	t.IsRevoked = true
	t.ExpiresAt = now
	r.Tokens[token] = t
	return nil
}

var (
	_ repository.DoctorRepository       = DoctorRepo{}
	_ repository.AppointmentRepository  = AppointmentRepo{}
	_ repository.ReportRepository       = ReportRepo{}
	_ repository.OrganizationRepository = OrganizationRepo{}
	_ repository.PipelineRepository     = PipelineRepo{}
	_ repository.DealRepository         = DealRepo{}
	_ repository.TerritoryRepository    = TerritoryRepo{}
	_ repository.UserRepository         = UserRepo{}
	_ repository.RefreshTokenRepository = TokenRepo{}
)
