package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-crm-server/internal/config"
	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/repository/repotest"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

type testApp struct {
	t       *testing.T
	router  *gin.Engine
	store   *repotest.Store
	svc     *Services
	cfg     *config.Config
	manager string
	alice   string
	bruno   string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		TimeZone:                  "America/Sao_Paulo",
		JWTSecret:                 "access",
		JWTRefreshSecret:          "refresh",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
		Database:                  config.DatabaseConfig{Driver: "mysql"},
	}
	require.NoError(t, cfg.Validate())

	store := repotest.NewStore()
	repos := Repositories{
		Doctors:       repotest.DoctorRepo{Store: store},
		Appointments:  repotest.AppointmentRepo{Store: store},
		Reports:       repotest.ReportRepo{Store: store},
		Organizations: repotest.OrganizationRepo{Store: store},
		Pipelines:     repotest.PipelineRepo{Store: store},
		Deals:         repotest.DealRepo{Store: store},
		Territories:   repotest.TerritoryRepo{Store: store},
		Users:         repotest.UserRepo{Store: store},
		Tokens:        repotest.TokenRepo{Store: store},
	}
	svc := NewServices(repos, cfg, nil)

	router := gin.New()
	SetupRoutes(router, svc, cfg, zerolog.Nop())

	app := &testApp{t: t, router: router, store: store, svc: svc, cfg: cfg}
	app.manager = app.addUser("gestor", models.GroupManager)
	app.alice = app.addUser("alice", models.GroupRepresentative)
	app.bruno = app.addUser("bruno", models.GroupRepresentative)
	return app
}

func (a *testApp) addUser(username, group string) string {
	a.t.Helper()
	ctx := context.Background()
	users := repotest.UserRepo{Store: a.store}
	g, err := users.EnsureGroup(ctx, group)
	require.NoError(a.t, err)
	u := models.User{Username: username}
	require.NoError(a.t, u.SetPassword("123456"))
	require.NoError(a.t, users.Create(ctx, &u, []models.Group{*g}))
	return u.ID
}

func (a *testApp) token(userID string) string {
	a.t.Helper()
	access, _, err := utils.GenerateTokens(userID, a.cfg)
	require.NoError(a.t, err)
	return access
}

func (a *testApp) addDoctor(name, owner string) models.Doctor {
	a.t.Helper()
	d := models.Doctor{Name: name, OwnerID: &owner}
	require.NoError(a.t, repotest.DoctorRepo{Store: a.store}.Create(context.Background(), &d))
	return d
}

func (a *testApp) postForm(path, userID string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.serve(req, userID)
}

func (a *testApp) get(path, userID string) *httptest.ResponseRecorder {
	return a.serve(httptest.NewRequest(http.MethodGet, path, nil), userID)
}

func (a *testApp) serve(req *http.Request, userID string) *httptest.ResponseRecorder {
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(userID))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.get("/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"UP"`)
}

func TestRequiresAuthentication(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, http.StatusUnauthorized, app.get("/api/v1/events", "").Code)
	assert.Equal(t, http.StatusUnauthorized, app.get("/crm/contacts", "").Code)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"alice","password":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := app.serve(req, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data services.Session `json:"data"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "alice", body.Data.User.Username)
	assert.NotEmpty(t, body.Data.AccessToken)
	assert.Contains(t, rec.Header().Values("Set-Cookie")[0], "refresh_token=")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"alice","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, app.serve(req, "").Code)
}

func TestEvents_CreateAndList(t *testing.T) {
	app := newTestApp(t)
	doc := app.addDoctor("Dr. Ana", app.alice)

	rec := app.postForm("/api/v1/events/create", app.alice, url.Values{
		"doctor": {doc.ID},
		"start":  {"2025-06-01T10:00:00"},
		"notes":  {"bring samples"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	decode(t, rec, &created)
	assert.True(t, created.OK)
	assert.NotEmpty(t, created.ID)

	rec = app.get("/api/v1/events", app.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []services.CalendarEvent
	decode(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, "2025-06-01T10:00:00", events[0].Start)
	assert.Equal(t, "2025-06-01T10:30:00", events[0].End)
	assert.Equal(t, "scheduled", events[0].Status)

	// Other representatives see nothing.
	rec = app.get("/api/v1/events", app.bruno)
	decode(t, rec, &events)
	assert.Empty(t, events)
}

func TestEvents_CreateRejectsBadInput(t *testing.T) {
	app := newTestApp(t)
	doc := app.addDoctor("Dr. Ana", app.alice)

	rec := app.postForm("/api/v1/events/create", app.alice, url.Values{"doctor": {doc.ID}, "start": {"not-a-date"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid start"}`, rec.Body.String())

	rec = app.postForm("/api/v1/events/create", app.bruno, url.Values{"doctor": {doc.ID}, "start": {"2025-06-01T10:00:00"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid doctor"}`, rec.Body.String())

	assert.Empty(t, app.store.Appointments)
}

func TestEvents_Update(t *testing.T) {
	app := newTestApp(t)
	doc := app.addDoctor("Dr. Ana", app.alice)
	rec := app.postForm("/api/v1/events/create", app.alice, url.Values{
		"doctor": {doc.ID}, "start": {"2025-06-01T10:00:00"}, "notes": {"keep me"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct{ ID string }
	decode(t, rec, &created)
	before := app.store.Appointments[created.ID]

	tests := []struct {
		name string
		user string
		form url.Values
		code int
		body string
	}{
		{"missing id", app.alice, url.Values{}, http.StatusBadRequest, `{"error":"missing id"}`},
		{"unknown id", app.alice, url.Values{"id": {"nope"}}, http.StatusBadRequest, `{"error":"invalid id"}`},
		{"other owner", app.bruno, url.Values{"id": {created.ID}, "start": {"garbage"}}, http.StatusForbidden, `{"error":"not allowed"}`},
		{"bad start", app.alice, url.Values{"id": {created.ID}, "start": {"garbage"}}, http.StatusBadRequest, `{"error":"invalid start"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.postForm("/api/v1/events/update", tt.user, tt.form)
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			assert.Equal(t, before.ScheduledAt, app.store.Appointments[created.ID].ScheduledAt)
		})
	}

	// Without a notes key the notes survive.
	rec = app.postForm("/api/v1/events/update", app.alice, url.Values{"id": {created.ID}, "status": {"completed"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "keep me", app.store.Appointments[created.ID].Notes)
	assert.Equal(t, models.StatusCompleted, app.store.Appointments[created.ID].Status)

	rec = app.postForm("/api/v1/events/update", app.alice, url.Values{"id": {created.ID}, "notes": {""}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, app.store.Appointments[created.ID].Notes)

	// Managers may edit anyone's visit.
	rec = app.postForm("/api/v1/events/update", app.manager, url.Values{"id": {created.ID}, "start": {"2025-06-02T09:30"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-06-02T09:30:00", services.FormatLocal(app.store.Appointments[created.ID].ScheduledAt, app.cfg.Location()))
}

func TestEvents_Delete(t *testing.T) {
	app := newTestApp(t)
	doc := app.addDoctor("Dr. Ana", app.alice)
	rec := app.postForm("/api/v1/events/create", app.alice, url.Values{"doctor": {doc.ID}, "start": {"2025-06-01T10:00:00"}})
	var created struct{ ID string }
	decode(t, rec, &created)

	assert.Equal(t, http.StatusForbidden, app.postForm("/api/v1/events/delete", app.bruno, url.Values{"id": {created.ID}}).Code)
	assert.Len(t, app.store.Appointments, 1)
	assert.Equal(t, http.StatusOK, app.postForm("/api/v1/events/delete", app.alice, url.Values{"id": {created.ID}}).Code)
	assert.Empty(t, app.store.Appointments)
}

func TestDeals_MoveAcrossPipelinesRejected(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	actor, err := app.svc.Accounts.ResolveActor(ctx, app.alice)
	require.NoError(t, err)

	deal, err := app.svc.Pipeline.CreateDeal(ctx, actor, services.DealInput{Title: "Contract"})
	require.NoError(t, err)
	other, err := app.svc.Pipeline.CreatePipeline(ctx, services.PipelineInput{Name: "Other", Stages: []string{"Lead"}})
	require.NoError(t, err)

	rec := app.postForm("/api/v1/deals/move", app.alice, url.Values{"id": {deal.ID}, "stage_id": {other.Stages[0].ID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "stage/pipeline mismatch")
	assert.Equal(t, deal.StageID, app.store.Deals[deal.ID].StageID)

	pipeline, err := app.svc.Pipeline.DefaultPipeline(ctx)
	require.NoError(t, err)
	rec = app.postForm("/api/v1/deals/move", app.bruno, url.Values{"id": {deal.ID}, "stage_id": {pipeline.Stages[1].ID}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.postForm("/api/v1/deals/move", app.alice, url.Values{"id": {deal.ID}, "stage_id": {pipeline.Stages[1].ID}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.Stages[1].ID, app.store.Deals[deal.ID].StageID)
}

func TestPages_ContactLifecycle(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm("/crm/contacts/new", app.alice, url.Values{"name": {"Dr. Ana"}, "region": {"SP"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/crm/contacts", rec.Header().Get("Location"))
	require.Len(t, app.store.Doctors, 1)

	var id string
	for id = range app.store.Doctors {
	}

	// Another representative is bounced back to the list.
	rec = app.get("/crm/contacts/"+id+"/edit", app.bruno)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/crm/contacts", rec.Header().Get("Location"))

	rec = app.postForm("/crm/contacts/"+id+"/delete", app.bruno, url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, app.store.Doctors, 1)

	rec = app.postForm("/crm/contacts/new", app.alice, url.Values{"name": {"  "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.get("/crm/contacts/"+id+"/edit", app.alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = app.postForm("/crm/contacts/"+id+"/delete", app.alice, url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, app.store.Doctors)
}

func TestPages_SecondReportRedirectsToEdit(t *testing.T) {
	app := newTestApp(t)
	doc := app.addDoctor("Dr. Ana", app.alice)
	rec := app.postForm("/api/v1/events/create", app.alice, url.Values{"doctor": {doc.ID}, "start": {"2025-06-01T10:00:00"}})
	var created struct{ ID string }
	decode(t, rec, &created)

	rec = app.postForm("/crm/reports/new/"+created.ID, app.alice, url.Values{"objective": {"Launch"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/crm/reports", rec.Header().Get("Location"))
	require.Len(t, app.store.Reports, 1)

	var reportID string
	for reportID = range app.store.Reports {
	}
	rec = app.postForm("/crm/reports/new/"+created.ID, app.alice, url.Values{"objective": {"Again"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/crm/reports/"+reportID+"/edit", rec.Header().Get("Location"))
	assert.Len(t, app.store.Reports, 1)

	rec = app.get("/crm/reports/new/"+created.ID, app.alice)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/crm/reports/"+reportID+"/edit", rec.Header().Get("Location"))
}

func TestAdmin_ManagerOnly(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusForbidden, app.get("/api/v1/admin/territories", app.alice).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/territories", strings.NewReader(`{"name":"North"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := app.serve(req, app.manager)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.get("/api/v1/admin/territories", app.manager)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "North")
}

func TestPages_Dashboard(t *testing.T) {
	app := newTestApp(t)
	app.addDoctor("Dr. Ana", app.alice)

	rec := app.get("/crm", app.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data services.DashboardKPIs `json:"data"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 1, body.Data.Assigned)
}
