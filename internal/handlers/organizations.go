package handlers

import (
	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

func (h *PageHandler) Organizations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orgs, err := h.organizations.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "organizations", gin.H{"organizations": orgs})
}

func (h *PageHandler) OrganizationForm(c *gin.Context) {
	utils.Success(c, "organization form", gin.H{})
}

func (h *PageHandler) CreateOrganization(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.OrganizationInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.organizations.Create(c.Request.Context(), actor, in); err != nil {
		pageError(c, err, organizationsPath)
		return
	}
	utils.SeeOther(c, organizationsPath)
}

func (h *PageHandler) EditOrganization(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	org, err := h.organizations.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		pageError(c, err, organizationsPath)
		return
	}
	utils.Success(c, "organization form", gin.H{"organization": org})
}

func (h *PageHandler) UpdateOrganization(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.OrganizationInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.organizations.Update(c.Request.Context(), actor, c.Param("id"), in); err != nil {
		pageError(c, err, organizationsPath)
		return
	}
	utils.SeeOther(c, organizationsPath)
}

func (h *PageHandler) DeleteOrganization(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.organizations.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		pageError(c, err, organizationsPath)
		return
	}
	utils.SeeOther(c, organizationsPath)
}
