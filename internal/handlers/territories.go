package handlers

import (
	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/repository"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

// TerritoryHandler is the admin console for territories, representative
// profiles and doctor assignments.
type TerritoryHandler struct {
	territories *services.TerritoryService
}

// NewTerritoryHandler creates a new TerritoryHandler.
func NewTerritoryHandler(territories *services.TerritoryService) *TerritoryHandler {
	return &TerritoryHandler{territories: territories}
}

func (h *TerritoryHandler) ListTerritories(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	territories, err := h.territories.ListTerritories(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Territories fetched successfully", territories)
}

func (h *TerritoryHandler) CreateTerritory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.TerritoryInput
	if !utils.BindAndValidate(c, &req) {
		return
	}
	territory, err := h.territories.CreateTerritory(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Territory created successfully", territory)
}

func (h *TerritoryHandler) UpdateTerritory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.TerritoryInput
	if !utils.BindAndValidate(c, &req) {
		return
	}
	territory, err := h.territories.UpdateTerritory(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Territory updated successfully", territory)
}

func (h *TerritoryHandler) DeleteTerritory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.territories.DeleteTerritory(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Territory deleted successfully", nil)
}

func (h *TerritoryHandler) ListRepresentatives(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	reps, err := h.territories.ListRepresentatives(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Representatives fetched successfully", reps)
}

// representativeRequest names the user that gets a field profile.
type representativeRequest struct {
	UserID string `json:"user" form:"user" binding:"required"`
}

func (h *TerritoryHandler) CreateRepresentative(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req representativeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	rep, err := h.territories.CreateRepresentative(c.Request.Context(), actor, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Representative profile ready", rep)
}

func (h *TerritoryHandler) DeleteRepresentative(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.territories.DeleteRepresentative(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Representative deleted successfully", nil)
}

// ListAssignments supports ?representative=, ?territory= and ?active=true.
func (h *TerritoryHandler) ListAssignments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter := repository.AssignmentFilter{
		RepresentativeID: c.Query("representative"),
		TerritoryID:      c.Query("territory"),
		ActiveOnly:       c.Query("active") == "true",
	}
	assignments, err := h.territories.ListAssignments(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Assignments fetched successfully", assignments)
}

func (h *TerritoryHandler) CreateAssignment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.AssignmentInput
	if !utils.BindAndValidate(c, &req) {
		return
	}
	assignment, err := h.territories.CreateAssignment(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Assignment created successfully", assignment)
}

func (h *TerritoryHandler) UpdateAssignment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.AssignmentInput
	if !utils.BindAndValidate(c, &req) {
		return
	}
	assignment, err := h.territories.UpdateAssignment(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Assignment updated successfully", assignment)
}

func (h *TerritoryHandler) DeleteAssignment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.territories.DeleteAssignment(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Assignment deleted successfully", nil)
}
