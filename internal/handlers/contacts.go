package handlers

import (
	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

// Contacts lists the visible doctors, newest first.
func (h *PageHandler) Contacts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	doctors, err := h.doctors.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "contacts", gin.H{"doctors": doctors})
}

// ContactForm is the empty create form.
func (h *PageHandler) ContactForm(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orgs, err := h.organizations.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "contact form", gin.H{"organizations": orgs})
}

func (h *PageHandler) CreateContact(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.DoctorInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.doctors.Create(c.Request.Context(), actor, in); err != nil {
		pageError(c, err, contactsPath)
		return
	}
	utils.SeeOther(c, contactsPath)
}

// EditContact shows the edit form. Doctors seen through an assignment are
// not editable and bounce back to the list.
func (h *PageHandler) EditContact(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	doctor, err := h.doctors.Get(ctx, actor, c.Param("id"))
	if err != nil {
		pageError(c, err, contactsPath)
		return
	}
	if !actor.CanMutate(doctor.OwnerID) {
		utils.SeeOther(c, contactsPath)
		return
	}
	orgs, err := h.organizations.List(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "contact form", gin.H{"doctor": doctor, "organizations": orgs})
}

func (h *PageHandler) UpdateContact(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.DoctorInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.doctors.Update(c.Request.Context(), actor, c.Param("id"), in); err != nil {
		pageError(c, err, contactsPath)
		return
	}
	utils.SeeOther(c, contactsPath)
}

// ConfirmDeleteContact shows the delete confirmation.
func (h *PageHandler) ConfirmDeleteContact(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	doctor, err := h.doctors.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		pageError(c, err, contactsPath)
		return
	}
	if !actor.CanMutate(doctor.OwnerID) {
		utils.SeeOther(c, contactsPath)
		return
	}
	utils.Success(c, "confirm delete", gin.H{"doctor": doctor})
}

func (h *PageHandler) DeleteContact(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.doctors.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		pageError(c, err, contactsPath)
		return
	}
	utils.SeeOther(c, contactsPath)
}
