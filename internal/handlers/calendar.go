package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

// CalendarHandler serves the JSON feed behind the agenda calendar.
type CalendarHandler struct {
	scheduling *services.SchedulingService
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(scheduling *services.SchedulingService) *CalendarHandler {
	return &CalendarHandler{scheduling: scheduling}
}

// eventRequest accepts the calendar fields from a form post or a JSON body.
// Notes is a pointer so an absent key can be told apart from an empty one.
type eventRequest struct {
	ID          string  `json:"id" form:"id"`
	DoctorID    string  `json:"doctor" form:"doctor"`
	Start       string  `json:"start" form:"start"`
	Status      string  `json:"status" form:"status"`
	ContactName string  `json:"contact_name" form:"contact_name"`
	Notes       *string `json:"notes" form:"notes"`
}

func bindEvent(c *gin.Context) (eventRequest, error) {
	var req eventRequest
	if c.ContentType() == gin.MIMEJSON {
		err := c.ShouldBindJSON(&req)
		return req, err
	}
	if err := c.Request.ParseForm(); err != nil {
		return req, err
	}
	req.ID = c.PostForm("id")
	req.DoctorID = c.PostForm("doctor")
	req.Start = c.PostForm("start")
	req.Status = c.PostForm("status")
	req.ContactName = c.PostForm("contact_name")
	if notes, ok := c.GetPostForm("notes"); ok {
		req.Notes = &notes
	}
	return req, nil
}

// eventError answers the calendar endpoints with the short messages the
// calendar script displays.
func eventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidID):
		utils.BareError(c, http.StatusBadRequest, "missing id")
	case errors.Is(err, services.ErrNotFound):
		utils.BareError(c, http.StatusBadRequest, "invalid id")
	case errors.Is(err, services.ErrForbidden):
		utils.BareError(c, http.StatusForbidden, "not allowed")
	case errors.Is(err, services.ErrInvalidStart):
		utils.BareError(c, http.StatusBadRequest, "invalid start")
	case errors.Is(err, services.ErrInvalidDoctor):
		utils.BareError(c, http.StatusBadRequest, "invalid doctor")
	default:
		_ = c.Error(err)
		utils.BareError(c, http.StatusInternalServerError, "internal server error")
	}
}

// Events lists the calendar feed, filtered by ?doctor= and ?status=.
func (h *CalendarHandler) Events(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var filter services.EventFilter
	_ = c.ShouldBindQuery(&filter)

	events, err := h.scheduling.ListEvents(c.Request.Context(), actor, filter)
	if err != nil {
		eventError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent schedules a visit dropped on the calendar.
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	req, err := bindEvent(c)
	if err != nil {
		utils.BareError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	in := services.EventInput{
		DoctorID:    req.DoctorID,
		Start:       req.Start,
		Status:      req.Status,
		ContactName: req.ContactName,
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	appt, err := h.scheduling.CreateEvent(c.Request.Context(), actor, in)
	if err != nil {
		eventError(c, err)
		return
	}
	utils.OK(c, gin.H{"id": appt.ID})
}

// UpdateEvent moves or edits a visit.
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	req, err := bindEvent(c)
	if err != nil {
		utils.BareError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	err = h.scheduling.UpdateEvent(c.Request.Context(), actor, services.EventUpdate{
		ID:     req.ID,
		Start:  req.Start,
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		eventError(c, err)
		return
	}
	utils.OK(c, nil)
}

// DeleteEvent removes a visit.
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	req, err := bindEvent(c)
	if err != nil {
		utils.BareError(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.scheduling.Delete(c.Request.Context(), actor, req.ID); err != nil {
		eventError(c, err)
		return
	}
	utils.OK(c, nil)
}

// Alerts lists the actor's visits in the next 72 hours.
func (h *CalendarHandler) Alerts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	feed, err := h.scheduling.Alerts(c.Request.Context(), actor)
	if err != nil {
		eventError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}
