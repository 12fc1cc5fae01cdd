package handlers

import (
	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

// Appointments lists visits, filtered by ?doctor= and ?status=.
func (h *PageHandler) Appointments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var filter services.EventFilter
	_ = c.ShouldBindQuery(&filter)

	appts, err := h.scheduling.ListAppointments(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "appointments", gin.H{
		"appointments":    appts,
		"statuses":        models.AppointmentStatuses,
		"selected_doctor": filter.DoctorID,
		"selected_status": filter.Status,
	})
}

// AppointmentForm is the empty create form.
func (h *PageHandler) AppointmentForm(c *gin.Context) {
	doctors, ok := h.doctorChoices(c)
	if !ok {
		return
	}
	utils.Success(c, "appointment form", gin.H{
		"doctors":  doctors,
		"statuses": models.AppointmentStatuses,
	})
}

func (h *PageHandler) CreateAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.AppointmentInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.scheduling.CreateAppointment(c.Request.Context(), actor, in); err != nil {
		pageError(c, err, appointmentsPath)
		return
	}
	utils.SeeOther(c, appointmentsPath)
}

func (h *PageHandler) EditAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	appt, err := h.scheduling.GetAppointment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		pageError(c, err, appointmentsPath)
		return
	}
	doctors, ok := h.doctorChoices(c)
	if !ok {
		return
	}
	loc := h.scheduling.Location()
	utils.Success(c, "appointment form", gin.H{
		"appointment": appt,
		"when":        services.FormatLocal(appt.ScheduledAt, loc),
		"doctors":     doctors,
		"statuses":    models.AppointmentStatuses,
	})
}

func (h *PageHandler) UpdateAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.AppointmentInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.scheduling.UpdateAppointment(c.Request.Context(), actor, c.Param("id"), in); err != nil {
		pageError(c, err, appointmentsPath)
		return
	}
	utils.SeeOther(c, appointmentsPath)
}

func (h *PageHandler) ConfirmDeleteAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	appt, err := h.scheduling.GetAppointment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		pageError(c, err, appointmentsPath)
		return
	}
	utils.Success(c, "confirm delete", gin.H{"appointment": appt})
}

func (h *PageHandler) DeleteAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.scheduling.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		pageError(c, err, appointmentsPath)
		return
	}
	utils.SeeOther(c, appointmentsPath)
}
