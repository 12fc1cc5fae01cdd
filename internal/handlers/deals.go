package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

// DealHandler serves the kanban board's JSON endpoints and pipeline admin.
type DealHandler struct {
	pipeline *services.PipelineService
}

// NewDealHandler creates a new DealHandler.
func NewDealHandler(pipeline *services.PipelineService) *DealHandler {
	return &DealHandler{pipeline: pipeline}
}

// moveRequest is the drop of a card on a column.
type moveRequest struct {
	ID      string `json:"id" form:"id"`
	StageID string `json:"stage_id" form:"stage_id"`
}

// ListDeals returns the actor's deals, optionally for one ?pipeline=.
func (h *DealHandler) ListDeals(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	deals, err := h.pipeline.ListDeals(c.Request.Context(), actor, c.Query("pipeline"))
	if err != nil {
		_ = c.Error(err)
		utils.BareError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	c.JSON(http.StatusOK, deals)
}

// MoveDeal changes the stage of a deal within its pipeline.
func (h *DealHandler) MoveDeal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BareError(c, http.StatusBadRequest, "invalid")
		return
	}

	err := h.pipeline.MoveDeal(c.Request.Context(), actor, req.ID, req.StageID)
	switch {
	case err == nil:
		utils.OK(c, nil)
	case errors.Is(err, services.ErrPipelineMismatch):
		utils.BareError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidID):
		utils.BareError(c, http.StatusBadRequest, "invalid")
	case errors.Is(err, services.ErrForbidden):
		utils.BareError(c, http.StatusForbidden, "not allowed")
	default:
		_ = c.Error(err)
		utils.BareError(c, http.StatusInternalServerError, "internal server error")
	}
}

// ListPipelines returns every pipeline with its stages.
func (h *DealHandler) ListPipelines(c *gin.Context) {
	pipelines, err := h.pipeline.ListPipelines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Pipelines fetched successfully", pipelines)
}

// CreatePipeline adds a pipeline with its ordered stages.
func (h *DealHandler) CreatePipeline(c *gin.Context) {
	var req services.PipelineInput
	if !utils.BindAndValidate(c, &req) {
		return
	}
	pipeline, err := h.pipeline.CreatePipeline(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Pipeline created successfully", pipeline)
}

// SetDefaultPipeline flags a pipeline as the kanban default.
func (h *DealHandler) SetDefaultPipeline(c *gin.Context) {
	if err := h.pipeline.SetDefault(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Default pipeline updated", nil)
}
