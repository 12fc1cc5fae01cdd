package handlers

import (
	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

var dealStatuses = []models.DealStatus{models.DealOpen, models.DealWon, models.DealLost}

func (h *PageHandler) Deals(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	deals, err := h.pipeline.Deals(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "deals", gin.H{"deals": deals})
}

// dealChoices is the select data of the deal form.
func (h *PageHandler) dealChoices(c *gin.Context) (gin.H, bool) {
	actor, _ := currentActor(c)
	ctx := c.Request.Context()
	orgs, err := h.organizations.List(ctx, actor)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	doctors, ok := h.doctorChoices(c)
	if !ok {
		return nil, false
	}
	// Listing through the default pipeline seeds it on first use.
	if _, err := h.pipeline.DefaultPipeline(ctx); err != nil {
		respondError(c, err)
		return nil, false
	}
	pipelines, err := h.pipeline.ListPipelines(ctx)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return gin.H{
		"organizations": orgs,
		"contacts":      doctors,
		"pipelines":     pipelines,
		"statuses":      dealStatuses,
	}, true
}

func (h *PageHandler) DealForm(c *gin.Context) {
	choices, ok := h.dealChoices(c)
	if !ok {
		return
	}
	utils.Success(c, "deal form", gin.H{"choices": choices})
}

func (h *PageHandler) CreateDeal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.DealInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.pipeline.CreateDeal(c.Request.Context(), actor, in); err != nil {
		pageError(c, err, dealsPath)
		return
	}
	utils.SeeOther(c, dealsPath)
}

func (h *PageHandler) EditDeal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	deal, err := h.pipeline.GetDeal(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		pageError(c, err, dealsPath)
		return
	}
	choices, ok := h.dealChoices(c)
	if !ok {
		return
	}
	utils.Success(c, "deal form", gin.H{"deal": deal, "choices": choices})
}

func (h *PageHandler) UpdateDeal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var in services.DealInput
	if !utils.BindAndValidate(c, &in) {
		return
	}
	if _, err := h.pipeline.UpdateDeal(c.Request.Context(), actor, c.Param("id"), in); err != nil {
		pageError(c, err, dealsPath)
		return
	}
	utils.SeeOther(c, dealsPath)
}

func (h *PageHandler) DeleteDeal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.pipeline.DeleteDeal(c.Request.Context(), actor, c.Param("id")); err != nil {
		pageError(c, err, dealsPath)
		return
	}
	utils.SeeOther(c, dealsPath)
}
