package handlers

import (
	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

var reportChoices = gin.H{
	"visit_numbers": []models.VisitNumber{models.VisitFirst, models.VisitSecond, models.VisitThirdOrMore},
	"modes":         []models.VisitMode{models.ModeInPerson, models.ModeRemote},
}

func reportEditPath(id string) string {
	return reportsPath + "/" + id + "/edit"
}

// Reports lists the actor's appointments with their report, if any.
func (h *PageHandler) Reports(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	rows, err := h.reports.ListReports(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "reports", gin.H{"rows": rows})
}

// ReportForm opens the report of an appointment. An appointment that
// already has one goes straight to its edit page.
func (h *PageHandler) ReportForm(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	appt, existing, err := h.reports.Appointment(c.Request.Context(), actor, c.Param("appointment"))
	if err != nil {
		pageError(c, err, reportsPath)
		return
	}
	if existing != nil {
		utils.SeeOther(c, reportEditPath(existing.ID))
		return
	}
	utils.Success(c, "report form", gin.H{"appointment": appt, "choices": reportChoices})
}

func (h *PageHandler) CreateReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.ReportInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	report, created, err := h.reports.CreateReport(c.Request.Context(), actor, c.Param("appointment"), in)
	if err != nil {
		pageError(c, err, reportsPath)
		return
	}
	if !created {
		utils.SeeOther(c, reportEditPath(report.ID))
		return
	}
	utils.SeeOther(c, reportsPath)
}

func (h *PageHandler) EditReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	report, err := h.reports.GetReport(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		pageError(c, err, reportsPath)
		return
	}
	utils.Success(c, "report form", gin.H{"report": report, "choices": reportChoices})
}

func (h *PageHandler) UpdateReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.ReportInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.reports.UpdateReport(c.Request.Context(), actor, c.Param("id"), in); err != nil {
		pageError(c, err, reportsPath)
		return
	}
	utils.SeeOther(c, reportsPath)
}
