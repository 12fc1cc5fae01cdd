package handlers

import (
	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

// Page paths. POST actions answer with a 303 to one of these.
const (
	contactsPath      = "/crm/contacts"
	appointmentsPath  = "/crm/appointments"
	reportsPath       = "/crm/reports"
	organizationsPath = "/crm/organizations"
	dealsPath         = "/crm/deals"
)

// PageHandler serves the server-rendered CRM screens. GET requests return
// the page context as JSON; form posts redirect.
type PageHandler struct {
	doctors       *services.DoctorService
	scheduling    *services.SchedulingService
	reports       *services.ReportService
	organizations *services.OrganizationService
	pipeline      *services.PipelineService
	dashboard     *services.DashboardService
}

// PageServices groups the services behind the pages.
type PageServices struct {
	Doctors       *services.DoctorService
	Scheduling    *services.SchedulingService
	Reports       *services.ReportService
	Organizations *services.OrganizationService
	Pipeline      *services.PipelineService
	Dashboard     *services.DashboardService
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(s PageServices) *PageHandler {
	return &PageHandler{
		doctors:       s.Doctors,
		scheduling:    s.Scheduling,
		reports:       s.Reports,
		organizations: s.Organizations,
		pipeline:      s.Pipeline,
		dashboard:     s.Dashboard,
	}
}

// Dashboard shows the 30-day coverage KPIs.
func (h *PageHandler) Dashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	kpis, err := h.dashboard.KPIs(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "dashboard", kpis)
}

// Agenda is the calendar screen with its doctor and status filters.
func (h *PageHandler) Agenda(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var filter services.EventFilter
	_ = c.ShouldBindQuery(&filter)

	agenda, err := h.dashboard.Agenda(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "agenda", agenda)
}

// Kanban shows the default pipeline board.
func (h *PageHandler) Kanban(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	board, err := h.pipeline.Kanban(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "kanban", board)
}

// doctorChoices lists the doctors a form may reference.
func (h *PageHandler) doctorChoices(c *gin.Context) ([]models.Doctor, bool) {
	actor, _ := currentActor(c)
	agenda, err := h.dashboard.Agenda(c.Request.Context(), actor, services.EventFilter{})
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return agenda.Doctors, true
}
