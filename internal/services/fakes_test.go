package services

import (
	"context"
	"fmt"
	"time"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository/repotest"
)

// --- fixtures ---

type fixture struct {
	db           *repotest.Store
	loc          *time.Location
	doctors      *DoctorService
	scheduling   *SchedulingService
	pipeline     *PipelineService
	reports      *ReportService
	orgs         *OrganizationService
	territories  *TerritoryService
	dashboard    *DashboardService
	accounts     *AccountService
	manager      policy.Actor
	alice, bruno policy.Actor
}

func newFixture() *fixture {
	db := repotest.NewStore()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}

	f := &fixture{db: db, loc: loc}
	f.doctors = NewDoctorService(repotest.DoctorRepo{Store: db}, repotest.OrganizationRepo{Store: db}, repotest.TerritoryRepo{Store: db})
	f.scheduling = NewSchedulingService(repotest.AppointmentRepo{Store: db}, f.doctors, nil, loc)
	f.pipeline = NewPipelineService(repotest.PipelineRepo{Store: db}, repotest.DealRepo{Store: db}, repotest.OrganizationRepo{Store: db}, f.doctors)
	f.reports = NewReportService(repotest.AppointmentRepo{Store: db}, repotest.ReportRepo{Store: db})
	f.orgs = NewOrganizationService(repotest.OrganizationRepo{Store: db})
	f.territories = NewTerritoryService(repotest.TerritoryRepo{Store: db}, repotest.DoctorRepo{Store: db}, repotest.UserRepo{Store: db})
	f.dashboard = NewDashboardService(repotest.DoctorRepo{Store: db}, repotest.AppointmentRepo{Store: db})
	f.accounts = NewAccountService(repotest.UserRepo{Store: db}, repotest.TerritoryRepo{Store: db})

	f.manager = policy.Actor{UserID: "u-manager", Username: "gestor", Manager: true}
	f.alice = policy.Actor{UserID: "u-alice", Username: "alice"}
	f.bruno = policy.Actor{UserID: "u-bruno", Username: "bruno"}
	return f
}

func (f *fixture) addDoctor(name string, owner policy.Actor) models.Doctor {
	d := models.Doctor{Name: name, OwnerID: &owner.UserID}
	if err := (repotest.DoctorRepo{Store: f.db}).Create(context.Background(), &d); err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) addAppointment(doctor models.Doctor, owner policy.Actor, at time.Time, status models.AppointmentStatus) models.Appointment {
	a := models.Appointment{DoctorID: doctor.ID, ScheduledAt: at, Status: status, OwnerID: &owner.UserID}
	if err := (repotest.AppointmentRepo{Store: f.db}).Create(context.Background(), &a); err != nil {
		panic(err)
	}
	return a
}

func (f *fixture) addRepresentative(actor *policy.Actor) {
	rep := models.Representative{UserID: actor.UserID}
	if err := (repotest.TerritoryRepo{Store: f.db}).CreateRepresentative(context.Background(), &rep); err != nil {
		panic(err)
	}
	actor.RepresentativeID = rep.ID
}

func (f *fixture) assign(doctor models.Doctor, actor policy.Actor, active bool) {
	t := models.Territory{Name: fmt.Sprintf("T-%d", len(f.db.Territories)+1)}
	if err := (repotest.TerritoryRepo{Store: f.db}).CreateTerritory(context.Background(), &t); err != nil {
		panic(err)
	}
	a := models.Assignment{DoctorID: doctor.ID, RepresentativeID: actor.RepresentativeID, TerritoryID: t.ID, Active: active, MonthlyTarget: 1}
	if err := (repotest.TerritoryRepo{Store: f.db}).CreateAssignment(context.Background(), &a); err != nil {
		panic(err)
	}
}
